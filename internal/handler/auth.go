package handler

import (
	"log/slog"
	"mime"
	"net/http"

	"github.com/sakif/recipe-share/internal/apperror"
	"github.com/sakif/recipe-share/internal/service"
)

// AuthHandler exchanges credentials for a bearer token.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin checks credentials and returns an access token.
//
// HTTP: POST /login
//
// Two body formats are accepted:
//   - JSON: {"email": "...", "password": "..."}
//   - OAuth2 password form (application/x-www-form-urlencoded): username=...&password=...
//
// Response: {"access_token": "...", "token_type": "bearer", "expires_in": 1800}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := r.ParseForm(); err != nil {
			writeError(w, apperror.ValidationFailed("body", "invalid form body"))
			return
		}
		req.Email = r.PostForm.Get("username")
		if req.Email == "" {
			req.Email = r.PostForm.Get("email")
		}
		req.Password = r.PostForm.Get("password")
	default:
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		logFailure(h.logger, r, err)
		writeError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, token)
}
