package handlers

import (
	"net/http"
	"strconv"

	"github.com/pribylovaa/go-user-api/internal/models"
	"github.com/pribylovaa/go-user-api/internal/service"
	"github.com/pribylovaa/go-user-api/internal/transport/http/httperr"
)

type updateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
	Status   *string `json:"status,omitempty"`
	Banned   *bool   `json:"banned,omitempty"`
}

type presignRequest struct {
	ContentType   string `json:"contentType"`
	ContentLength int64  `json:"contentLength"`
}

type presignResponse struct {
	UploadURL      string            `json:"uploadUrl"`
	AvatarKey      string            `json:"avatarKey"`
	ExpiresSeconds int64             `json:"expiresSeconds"`
	RequiredHeader map[string]string `json:"requiredHeader,omitempty"`
}

type confirmRequest struct {
	AvatarKey string `json:"avatarKey"`
}

// MyProfile — GET /v1/users/profile: проекция текущего пользователя.
// Гейт аутентификации уже прочитал её через read-through кэш — повторного
// похода ни в кэш, ни в БД не нужно.
func (h *Handlers) MyProfile(w http.ResponseWriter, r *http.Request) {
	user, err := actor(r)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// GetUser — GET /v1/users/{userId}: сам или админ.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := actor(r)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	targetID, err := h.pathObjectID(r, "userId")
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	if user.ID != targetID.Hex() && !user.IsAdmin() {
		httperr.WriteError(w, r, service.ErrForbidden)
		return
	}

	profile, err := h.svc.Profile(r.Context(), targetID)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// UpdateUser — PATCH /v1/users/{userId}: частичное обновление.
func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	user, err := actor(r)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	targetID, err := h.pathObjectID(r, "userId")
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	var in updateUserRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	params := service.UpdateParams{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Banned:   in.Banned,
	}
	if in.Role != nil {
		role := models.Role(*in.Role)
		params.Role = &role
	}
	if in.Status != nil {
		status := models.Status(*in.Status)
		params.Status = &status
	}

	updated, err := h.svc.UpdateUser(r.Context(), user, targetID, params)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	profile := updated.Profile()
	writeJSON(w, http.StatusOK, &profile)
}

// ListUsers — GET /v1/users?limit=&offset=: admin-only.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	user, err := actor(r)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	limit := queryInt64(r, "limit")
	offset := queryInt64(r, "offset")

	profiles, err := h.svc.ListUsers(r.Context(), user, limit, offset)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": profiles})
}

// AvatarPresign — POST /v1/users/{userId}/avatar/presign.
func (h *Handlers) AvatarPresign(w http.ResponseWriter, r *http.Request) {
	user, err := actor(r)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	targetID, err := h.pathObjectID(r, "userId")
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	var in presignRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	info, err := h.svc.AvatarPresign(r.Context(), user, targetID, in.ContentType, in.ContentLength)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, presignResponse{
		UploadURL:      info.UploadURL,
		AvatarKey:      info.AvatarKey,
		ExpiresSeconds: int64(info.Expires.Seconds()),
		RequiredHeader: info.RequiredHeader,
	})
}

// AvatarConfirm — POST /v1/users/{userId}/avatar/confirm.
func (h *Handlers) AvatarConfirm(w http.ResponseWriter, r *http.Request) {
	user, err := actor(r)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	targetID, err := h.pathObjectID(r, "userId")
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	var in confirmRequest
	if err := decodeStrict(r, &in); err != nil || in.AvatarKey == "" {
		httperr.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	updated, err := h.svc.AvatarConfirm(r.Context(), user, targetID, in.AvatarKey)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	profile := updated.Profile()
	writeJSON(w, http.StatusOK, &profile)
}

func queryInt64(r *http.Request, name string) int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
