package handlers

import (
	"net/http"

	"github.com/pribylovaa/go-user-api/internal/models"
	"github.com/pribylovaa/go-user-api/internal/service"
	"github.com/pribylovaa/go-user-api/internal/transport/http/httperr"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type loginRequest struct {
	Login        string `json:"login,omitempty"`
	Password     string `json:"password,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	User *models.Profile   `json:"user"`
	Pair *models.TokenPair `json:"tokens"`
}

func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	user, pair, err := h.svc.RegisterUser(r.Context(), service.RegisterParams{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
		Name:     in.Name,
	})
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	profile := user.Profile()
	writeJSON(w, http.StatusCreated, authResponse{User: &profile, Pair: pair})
}

func (h *Handlers) LoginUser(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	user, pair, err := h.svc.Login(r.Context(), service.LoginParams{
		Login:        in.Login,
		Password:     in.Password,
		RefreshToken: in.RefreshToken,
	})
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	profile := user.Profile()
	writeJSON(w, http.StatusOK, authResponse{User: &profile, Pair: pair})
}

func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil || in.RefreshToken == "" {
		httperr.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	pair, _, err := h.svc.Rotate(r.Context(), in.RefreshToken)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil || in.RefreshToken == "" {
		httperr.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	if err := h.svc.Logout(r.Context(), in.RefreshToken); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
