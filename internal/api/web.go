package api

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/rs/zerolog"
)

//go:embed web
var webFS embed.FS

var indexTemplate = template.Must(template.ParseFS(webFS, "web/index.html"))

type indexPage struct {
	Title       string
	Placeholder string
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, indexPage{
		Title:       "Asistente de lanzamientos de Relativity",
		Placeholder: "Pregunta sobre nuevas funcionalidades o mejoras...",
	})
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("rendering index")
	}
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
