package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pribylovaa/go-user-api/internal/config"
	"github.com/pribylovaa/go-user-api/internal/crypto"
	"github.com/pribylovaa/go-user-api/internal/opaqueid"
	"github.com/pribylovaa/go-user-api/internal/service"
	"github.com/pribylovaa/go-user-api/internal/transport/http/handlers"
	"github.com/pribylovaa/go-user-api/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
//
// Порядок стадий на каждый запрос фиксирован и строго последователен:
// recover -> request_id -> логирование -> метрики -> signature-гейт ->
// таймаут -> кодирование идентификаторов исходящего тела -> декодирование
// входящих -> (для защищённых роутов) bearer-аутентификация -> хендлер.
// Отказ любой стадии обрывает все последующие.
func NewRouter(svc *service.Service, cfg *config.Config, opts Options) (http.Handler, error) {
	codec, err := opaqueid.NewCodec(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, err
	}

	envelope := crypto.NewEnvelope(cfg.Auth.JWTSecret)
	verbose := cfg.Env != "prod"

	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Logging(opts.Logger),
		middleware.Metrics(),
		middleware.Signature(envelope, cfg.App.Name, cfg.App.Version, verbose),
	)
	if opts.Timeout > 0 {
		root.Use(chimw.Timeout(opts.Timeout))
	}
	root.Use(
		middleware.EncodeIDs(codec),
		middleware.DecodeIDs(codec),
	)

	h := handlers.New(svc, codec)
	authn := middleware.Authenticate(svc)

	root.Route("/v1", func(r chi.Router) {
		r.Post("/auth/register", h.RegisterUser)
		r.Post("/auth/login", h.LoginUser)
		r.Post("/auth/refresh", h.RefreshToken)
		r.Post("/auth/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Get("/users", h.ListUsers)
			r.Get("/users/profile", h.MyProfile)
			r.Get("/users/{userId}", h.GetUser)
			r.Patch("/users/{userId}", h.UpdateUser)
			r.Post("/users/{userId}/avatar/presign", h.AvatarPresign)
			r.Post("/users/{userId}/avatar/confirm", h.AvatarConfirm)
		})
	})

	return root, nil
}
