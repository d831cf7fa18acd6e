package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/relbot/internal/escalation"
)

// CookieName is the name of the signed session cookie.
const CookieName = "relbot_session"

// DefaultTTL is how long an idle session keeps its state.
const DefaultTTL = 24 * time.Hour

// Session is one caller's state for the duration of a request.
type Session struct {
	ID      string
	Pending escalation.PendingContact

	fresh bool
}

// Manager ties sessions to signed cookies and a storage backend.
type Manager struct {
	backend Backend
	secret  []byte
	ttl     time.Duration
	secure  bool
}

// NewManager creates a manager. Secure marks cookies HTTPS-only.
func NewManager(backend Backend, secret string, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{backend: backend, secret: []byte(secret), ttl: ttl, secure: secure}
}

// Load returns the caller's session. A missing, tampered or expired cookie
// yields a fresh session in the NORMAL state. When the backend fails, Load
// still returns the session for the verified ID, without pending state, so
// callers can clear it.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	id, ok := m.idFromRequest(r)
	if !ok {
		return m.fresh(), nil
	}

	p, err := m.backend.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return &Session{ID: id}, nil
	}
	if err != nil {
		return &Session{ID: id}, err
	}
	return &Session{ID: id, Pending: p}, nil
}

// Save persists s. Sessions in the NORMAL state are removed from the
// backend; waiting sessions are stored and the cookie is (re)issued.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if !s.Pending.Waiting {
		if s.fresh {
			return nil
		}
		return m.backend.Delete(ctx, s.ID)
	}

	if err := m.backend.Put(ctx, s.ID, s.Pending, m.ttl); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    m.sign(s.ID),
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.fresh = false
	return nil
}

// Clear resets s to the NORMAL state and persists that.
func (m *Manager) Clear(ctx context.Context, w http.ResponseWriter, s *Session) error {
	s.Pending = escalation.PendingContact{}
	return m.Save(ctx, w, s)
}

func (m *Manager) fresh() *Session {
	return &Session{ID: uuid.NewString(), fresh: true}
}

func (m *Manager) idFromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	return m.verify(c.Value)
}

func (m *Manager) sign(id string) string {
	return id + "." + base64.RawURLEncoding.EncodeToString(m.mac(id))
}

func (m *Manager) verify(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(got, m.mac(id)) {
		return "", false
	}
	return id, true
}

func (m *Manager) mac(id string) []byte {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(id))
	return h.Sum(nil)
}
