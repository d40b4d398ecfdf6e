package middleware

import (
	"net/http"
)

// Middleware — звено HTTP-конвейера сервиса.
// Порядок связывания задаёт роутер; каждая стадия вправе оборвать запрос,
// не передавая его дальше.
type Middleware func(http.Handler) http.Handler

// statusWriter перехватывает статус и объём ответа — по одной обёртке
// на каждую из стадий Logging и Metrics, чтобы они не зависели друг от друга.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w}
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// Status возвращает записанный статус; до первой записи в тело и заголовки
// это 200 — так же трактует молчание net/http.
func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
