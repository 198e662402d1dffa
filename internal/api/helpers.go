package api

import (
	"context"
	"net/http"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/errors"
	"github.com/lisashushakova/PresentationConfigurator/internal/validation"
)

// validate checks request bodies against their `validate` struct tags.
var validate = validation.New()

// MessageResponse is a simple confirmation payload.
type MessageResponse struct {
	Message string `json:"message" doc:"Human-readable confirmation"`
}

// MessageOutput wraps a message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// authenticate resolves the session cookie from a raw Cookie header.
// Handlers receive the header via a `header:"Cookie"` input field so the
// session check stays inside the huma pipeline and failures render as
// regular API errors.
func (s *Server) authenticate(ctx context.Context, cookieHeader string) (*domain.Session, error) {
	token := s.sessionToken(cookieHeader)
	if token == "" {
		return nil, errors.Unauthorized("authentication required")
	}
	return s.services.Auth.SessionFromToken(ctx, token)
}

func (s *Server) sessionToken(cookieHeader string) string {
	if cookieHeader == "" {
		return ""
	}
	cookies, err := http.ParseCookie(cookieHeader)
	if err != nil {
		return ""
	}
	for _, c := range cookies {
		if c.Name == s.cfg.Auth.CookieName {
			return c.Value
		}
	}
	return ""
}

// sessionCookie builds the browser cookie carrying the opaque session token.
// maxAge <= 0 expires the cookie (logout).
func (s *Server) sessionCookie(token string, maxAge int) http.Cookie {
	return http.Cookie{
		Name:     s.cfg.Auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.App.Environment == "production",
		SameSite: http.SameSiteLaxMode,
	}
}
