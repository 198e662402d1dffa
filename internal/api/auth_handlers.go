package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/login",
		Summary:     "Start login",
		Description: "Redirects the browser to the drive provider's consent screen",
		Tags:        []string{"Auth"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "loginCallback",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/callback",
		Summary:     "OAuth callback",
		Description: "Completes the OAuth flow, creates the session and redirects to the web client",
		Tags:        []string{"Auth"},
	}, s.handleCallback)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Current user",
		Description: "Returns the logged-in user's profile",
		Tags:        []string{"Auth"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Deletes the session and expires the cookie",
		Tags:        []string{"Auth"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleLogout)
}

// === DTOs ===

// RedirectOutput sends the browser elsewhere.
type RedirectOutput struct {
	Status   int
	Location string `header:"Location"`
}

// CallbackInput carries the OAuth provider's redirect parameters.
type CallbackInput struct {
	State string `query:"state" required:"true" doc:"Opaque state token from the login redirect"`
	Code  string `query:"code" required:"true" doc:"Authorization code"`
}

// CallbackOutput sets the session cookie and redirects to the web client.
type CallbackOutput struct {
	Status    int
	Location  string      `header:"Location"`
	SetCookie http.Cookie `header:"Set-Cookie"`
}

// UserResponse contains the logged-in user's profile.
type UserResponse struct {
	ID      string `json:"id" doc:"User ID"`
	Name    string `json:"name" doc:"Display name"`
	IconURL string `json:"icon_url,omitempty" doc:"Avatar URL"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// AuthedInput is the bare authenticated request.
type AuthedInput struct {
	Cookie string `header:"Cookie"`
}

// LogoutOutput expires the session cookie.
type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      MessageResponse
}

// === Handlers ===

func (s *Server) handleLogin(ctx context.Context, _ *struct{}) (*RedirectOutput, error) {
	url, state := s.services.Auth.LoginURL(ctx)
	s.logger.Debug("Login redirect issued", "state", state)
	return &RedirectOutput{Status: http.StatusTemporaryRedirect, Location: url}, nil
}

func (s *Server) handleCallback(ctx context.Context, input *CallbackInput) (*CallbackOutput, error) {
	sess, err := s.services.Auth.HandleCallback(ctx, input.State, input.Code)
	if err != nil {
		return nil, err
	}

	maxAge := int(s.cfg.Auth.SessionDuration.Seconds())
	return &CallbackOutput{
		Status:    http.StatusTemporaryRedirect,
		Location:  s.cfg.Server.FrontendOrigin,
		SetCookie: s.sessionCookie(sess.Token, maxAge),
	}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, input *AuthedInput) (*UserOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: UserResponse{
		ID:      sess.UserID,
		Name:    sess.UserName,
		IconURL: sess.IconURL,
	}}, nil
}

func (s *Server) handleLogout(ctx context.Context, input *AuthedInput) (*LogoutOutput, error) {
	if token := s.sessionToken(input.Cookie); token != "" {
		if err := s.services.Auth.Logout(ctx, token); err != nil {
			return nil, err
		}
	}

	return &LogoutOutput{
		SetCookie: s.sessionCookie("", -1),
		Body:      MessageResponse{Message: "Logged out"},
	}, nil
}
