package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-user-api/internal/models"
	"github.com/pribylovaa/go-user-api/internal/service"
	"github.com/pribylovaa/go-user-api/internal/transport/http/httperr"
)

type ctxKey int

const ctxKeyActor ctxKey = iota

// ActorFrom достаёт проекцию аутентифицированного пользователя из контекста.
func ActorFrom(ctx context.Context) (*models.Profile, bool) {
	p, ok := ctx.Value(ctxKeyActor).(*models.Profile)
	return p, ok
}

// Authenticate проверяет Authorization: Bearer <accessToken>, загружает
// проекцию владельца через read-through кэш профилей и кладёт её в контекст.
// Тёплый кэш означает ноль обращений к БД на аутентифицированный запрос.
//
// Порядок отказов: нечитаемый/чужой токен и истёкший токен — 401 со своими
// кодами; бан отсекается и здесь — устаревший, но ещё валидный access-токен
// не должен переживать бан. Свежесть флага banned обеспечивает контракт
// инвалидизации: каждая мутация учётной записи сбрасывает кэш-запись.
func Authenticate(svc *service.Service) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httperr.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			uid, err := svc.VerifyAccess(token)
			if err != nil {
				httperr.WriteError(w, r, err)
				return
			}

			actor, err := svc.Profile(r.Context(), uid)
			if err != nil {
				// Субъект валидного токена исчез — токен чужой.
				if errors.Is(err, service.ErrNotFound) {
					err = service.ErrInvalidToken
				}
				httperr.WriteError(w, r, err)
				return
			}

			if actor.Banned {
				httperr.WriteError(w, r, service.ErrBanned)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyActor, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) || len(auth) == len(prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}
