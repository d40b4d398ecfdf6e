package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/go-user-api/internal/crypto"
	logctx "github.com/pribylovaa/go-user-api/internal/pkg/log"
	"github.com/pribylovaa/go-user-api/internal/transport/http/httperr"
)

// SignatureHeader — имя заголовка рукопожатия.
const SignatureHeader = "signature"

// clientIdentity — полезная нагрузка конверта подписи: идентичность
// клиентской сборки, известная серверу из конфигурации.
type clientIdentity struct {
	AppName    string `json:"appName"`
	AppVersion int    `json:"appVersion"`
}

// Signature — пред-идентификационный гейт: требует заголовок signature,
// открывает двухслойный конверт и сверяет идентичность клиентской сборки.
//
// Любой отказ — отсутствие заголовка, нечитаемый конверт, расхождение
// тега, чужая сборка — наружу отдаётся одинаково: 401/unauthorized.
// Различимые причины уходят только во внутренний лог и, вне production,
// в diagnostic detail ответа.
func Signature(env crypto.Envelope, appName string, appVersion int, verbose bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lg := logctx.From(r.Context())

			reject := func(reason string) {
				lg.Warn("signature_rejected",
					slog.String("path", r.URL.Path),
					slog.String("reason", reason),
				)

				detail := ""
				if verbose {
					detail = reason
				}
				httperr.WriteErrorDetail(w, r, httperr.ErrUnauthorized, detail)
			}

			raw := r.Header.Get(SignatureHeader)
			if raw == "" {
				reject("signature header is missing")
				return
			}

			plaintext, err := env.Open(raw)
			if err != nil {
				reject("signature is invalid")
				return
			}

			var id clientIdentity
			if err := json.Unmarshal([]byte(plaintext), &id); err != nil {
				reject("signature is invalid")
				return
			}

			if id.AppName != appName {
				reject("wrong application")
				return
			}

			if id.AppVersion != appVersion {
				reject("wrong application version")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
