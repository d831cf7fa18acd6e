//go:build integration

package api

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/relbot/internal/answer"
	"github.com/kalambet/relbot/internal/assistant"
	"github.com/kalambet/relbot/internal/completion"
	"github.com/kalambet/relbot/internal/dataset"
	"github.com/kalambet/relbot/internal/session"
	"github.com/kalambet/relbot/internal/sheets"
	"github.com/kalambet/relbot/internal/storage"
)

func TestAskContactRoundTrip(t *testing.T) {
	// Model upstream that always asks for contact details.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req completion.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("upstream decode error: %v", err)
		}
		if len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content, "New search UI released") {
			t.Errorf("prompt is missing the release context: %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Comparta su email para soporte adicional."}}]}`))
	}))
	defer upstream.Close()

	var mu sync.Mutex
	var rows []sheets.Interaction
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in sheets.Interaction
		json.NewDecoder(r.Body).Decode(&in)
		mu.Lock()
		rows = append(rows, in)
		mu.Unlock()
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer webhook.Close()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "releases.csv")
	csv := "Fecha Inicio,Fecha Fin,Tipo,Modulo,Descripcion\n2024-03-01,2024-03-31,Nueva,Search,New search UI released\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csv), 0o644))

	store, err := storage.Open(dir)
	require.NoError(t, err)
	defer store.Close()

	svc := assistant.New(
		dataset.NewFile(csvPath),
		answer.NewGenerator(completion.NewClient("test-key", completion.WithBaseURL(upstream.URL)), answer.DefaultParams()),
		sheets.NewClient(webhook.URL, 5*time.Second),
		zerolog.Nop(),
	)
	srv := httptest.NewServer(NewHandler(Deps{
		Assistant: svc,
		Sessions:  session.NewManager(session.NewSQLiteBackend(store), "secret", time.Hour, false),
		Logger:    zerolog.Nop(),
	}))
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	resp, err := client.Post(srv.URL+"/ask", "application/json", strings.NewReader(`{"question":"search ui"}`))
	require.NoError(t, err)
	var ask askResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ask))
	resp.Body.Close()
	assert.True(t, ask.RequiresContact)

	resp, err = client.Post(srv.URL+"/contact", "application/json",
		strings.NewReader(`{"name":"Ana","email":"ana@example.com","organization":"Acme"}`))
	require.NoError(t, err)
	var contact contactResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&contact))
	resp.Body.Close()
	assert.True(t, contact.Success)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, rows, 2)
	assert.Equal(t, "search ui", rows[1].Question)
	assert.Equal(t, "Comparta su email para soporte adicional.", rows[1].Answer)
	assert.Equal(t, "ana@example.com", rows[1].Email)
}
