package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/pribylovaa/go-user-api/internal/opaqueid"
	logctx "github.com/pribylovaa/go-user-api/internal/pkg/log"
	"github.com/pribylovaa/go-user-api/internal/service"
	"github.com/pribylovaa/go-user-api/internal/transport/http/httperr"
)

// DecodeIDs — входящая половина переписывания идентификаторов: query-параметры
// и JSON-тело приводятся к внутренней форме до того, как их увидит бизнес-логика
// (path-параметры декодируются хендлерами после маршрутизации — раньше chi их
// просто не знает). Неудача декодирования любого идентификатора отклоняет
// запрос как not found: снаружи «битый id» и «нет такой записи» неразличимы.
func DecodeIDs(codec *opaqueid.Codec) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			changed := false
			for key, vals := range q {
				if !isIDParam(key) {
					continue
				}

				for i, val := range vals {
					dec, err := codec.DecodeValue(val)
					if err != nil {
						httperr.WriteError(w, r, service.ErrNotFound)
						return
					}
					vals[i] = toString(dec)
				}
				q[key] = vals
				changed = true
			}
			if changed {
				r.URL.RawQuery = q.Encode()
			}

			if r.Body != nil && r.ContentLength != 0 && isJSON(r.Header.Get("Content-Type")) {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					httperr.WriteError(w, r, service.ErrInvalidArgument)
					return
				}
				_ = r.Body.Close()

				rewritten, err := opaqueid.RewriteJSON(body, codec.DecodeValue)
				if err != nil {
					httperr.WriteError(w, r, service.ErrNotFound)
					return
				}

				r.Body = io.NopCloser(bytes.NewReader(rewritten))
				r.ContentLength = int64(len(rewritten))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// EncodeIDs — исходящая половина: ответ буферизуется, идентификаторные поля
// JSON-тела кодируются в непрозрачную форму, тело отправляется одним куском.
// Мидлвар стоит в цепочке ровно один раз, поэтому перекодирование не
// применяется повторно, сколько бы хендлеров ни собирало ответ.
func EncodeIDs(codec *opaqueid.Codec) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bw := &bufferingWriter{ResponseWriter: w}
			next.ServeHTTP(bw, r)

			body := bw.buf.Bytes()
			if bw.Written() && isJSON(bw.Header().Get("Content-Type")) {
				rewritten, err := opaqueid.RewriteJSON(body, codec.EncodeValue)
				if err != nil {
					logctx.From(r.Context()).Error("response_id_encode_failed",
						slog.String("path", r.URL.Path),
						slog.String("err", err.Error()),
					)
					// Тело ещё не ушло: безопасно заменить его на 500.
					bw.status = http.StatusInternalServerError
					_, resp := httperr.ToHTTP(nil)
					bw.flushError(w, resp)
					return
				}
				body = rewritten
			}

			bw.flush(w, body)
		})
	}
}

func isIDParam(key string) bool {
	return key == "id" || (len(key) >= 4 && strings.HasSuffix(key, "Id"))
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json")
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		// json.Number и прочие сериализуемые скаляры.
		if s, ok := v.(interface{ String() string }); ok {
			return s.String()
		}
		return ""
	}
}

// bufferingWriter откладывает запись тела до завершения хендлера.
type bufferingWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *bufferingWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
}

func (w *bufferingWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.buf.Write(p)
}

func (w *bufferingWriter) Written() bool {
	return w.buf.Len() > 0
}

func (w *bufferingWriter) flush(dst http.ResponseWriter, body []byte) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	dst.Header().Set("Content-Length", strconv.Itoa(len(body)))
	dst.WriteHeader(w.status)
	_, _ = dst.Write(body)
}

func (w *bufferingWriter) flushError(dst http.ResponseWriter, resp httperr.ErrorResponse) {
	dst.Header().Set("Content-Type", "application/json")
	dst.WriteHeader(w.status)
	_ = json.NewEncoder(dst).Encode(resp)
}
