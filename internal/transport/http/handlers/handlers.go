// handlers реализует REST-эндпойнты сервиса поверх бизнес-слоя.
// Вся валидация формата JSON — здесь; доменная валидация — в service.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pribylovaa/go-user-api/internal/models"
	"github.com/pribylovaa/go-user-api/internal/opaqueid"
	"github.com/pribylovaa/go-user-api/internal/service"
	"github.com/pribylovaa/go-user-api/internal/transport/http/middleware"
)

// Handlers агрегирует зависимости эндпойнтов.
type Handlers struct {
	svc *service.Service
	ids *opaqueid.Codec
}

func New(svc *service.Service, ids *opaqueid.Codec) *Handlers {
	return &Handlers{svc: svc, ids: ids}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// actor достаёт проекцию аутентифицированного пользователя; отсутствие —
// ошибка сборки цепочки мидлваров, а не клиента.
func actor(r *http.Request) (*models.Profile, error) {
	p, ok := middleware.ActorFrom(r.Context())
	if !ok {
		return nil, fmt.Errorf("request is not authenticated")
	}
	return p, nil
}

// pathObjectID читает path-параметр, снимает непрозрачную кодировку и
// приводит к ObjectID. Path-параметры появляются только после маршрутизации,
// поэтому входной рерайтер их не видел — декодирование выполняется здесь,
// тем же кодеком. Любая неудача — not found: клиент не должен отличать
// «битый идентификатор» от «нет такой записи».
func (h *Handlers) pathObjectID(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, name)

	hexID, err := h.ids.DecodeHex(raw)
	if err != nil {
		return primitive.NilObjectID, service.ErrNotFound
	}

	oid, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return primitive.NilObjectID, service.ErrNotFound
	}

	return oid, nil
}
