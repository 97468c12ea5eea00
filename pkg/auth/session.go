package auth

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	log "github.com/sirupsen/logrus"
)

// CookieName is the session cookie set after a successful login.
const CookieName = "admin_auth"

const sessionLifetime = 7 * 24 * time.Hour

type session struct {
	ID       string
	IssuedAt int64
}

// Sessions issues and checks signed session cookies.
type Sessions struct {
	codec  *securecookie.SecureCookie
	secure bool
}

// NewSessions signs cookies with key. secure marks cookies HTTPS-only.
func NewSessions(key []byte, secure bool) *Sessions {
	codec := securecookie.New(key, nil)
	codec.MaxAge(int(sessionLifetime.Seconds()))
	return &Sessions{codec: codec, secure: secure}
}

// Issue sets a fresh session cookie on w.
func (s *Sessions) Issue(w http.ResponseWriter) error {
	value, err := s.codec.Encode(CookieName, session{
		ID:       uuid.NewString(),
		IssuedAt: time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	http.SetCookie(w, s.cookie(value, 0))
	return nil
}

// Clear expires the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", -1))
}

// Valid reports whether r carries a session cookie signed by s.
func (s *Sessions) Valid(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	var sess session
	if err := s.codec.Decode(CookieName, c.Value, &sess); err != nil {
		log.WithError(err).Debug("Rejected session cookie")
		return false
	}
	return sess.ID != ""
}

func (s *Sessions) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
