package handlers

import (
	"net/http"
	"net/mail"
	"strings"

	"auth-service/internal/http/middleware"
	"auth-service/internal/httperr"
	"auth-service/internal/models"
	"auth-service/internal/service"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 32
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (in *loginRequest) validate() map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(in.Username) == "" {
		fields["username"] = "username is mandatory"
	}
	if in.Password == "" {
		fields["password"] = "password is mandatory"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

type registerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (in *registerRequest) validate() map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "name is mandatory"
	}
	if strings.TrimSpace(in.Username) == "" {
		fields["username"] = "username is mandatory"
	} else if _, err := mail.ParseAddress(in.Username); err != nil {
		fields["username"] = "username must be an email"
	}
	if n := len([]rune(in.Password)); n < minPasswordLen || n > maxPasswordLen {
		fields["password"] = "password must have from 8 to 32 characters"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

type refreshRequest struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

func (in *refreshRequest) validate() map[string]string {
	fields := map[string]string{}
	if in.Token == "" {
		fields["token"] = "token is mandatory"
	}
	if in.RefreshToken == "" {
		fields["refreshToken"] = "refreshToken is mandatory"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

type tokenPairResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:       u.ID.String(),
		Name:     u.Name,
		Username: u.Username,
		Role:     string(u.Role),
	}
}

// Login — POST /api/auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteValidationError(w, r, map[string]string{"body": "invalid JSON body"})
		return
	}

	if fields := in.validate(); fields != nil {
		httperr.WriteValidationError(w, r, fields)
		return
	}

	pair, err := h.svc.LoginUser(r.Context(), in.Username, in.Password)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenPairResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Register — POST /api/auth/register.
// В ответе — проекция пользователя без хэша пароля.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteValidationError(w, r, map[string]string{"body": "invalid JSON body"})
		return
	}

	if fields := in.validate(); fields != nil {
		httperr.WriteValidationError(w, r, fields)
		return
	}

	user, err := h.svc.RegisterUser(r.Context(), in.Name, in.Username, in.Password)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

// RefreshToken — POST /api/auth/refreshToken.
// Принимает пару access+refresh (access может быть просрочен) и выпускает новую.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteValidationError(w, r, map[string]string{"body": "invalid JSON body"})
		return
	}

	if fields := in.validate(); fields != nil {
		httperr.WriteValidationError(w, r, fields)
		return
	}

	pair, err := h.svc.RefreshToken(r.Context(), in.Token, in.RefreshToken)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenPairResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Ping — GET /api/auth/ping. Требует привязанной идентичности:
// мягкий authn-мидлвар сам 401 не отвечает, поэтому отказ — здесь.
func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.IdentityFrom(r.Context()); !ok {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Pong"))
}
