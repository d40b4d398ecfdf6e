// httperr стандартизирует ответы об ошибках HTTP-слоя.
// На вход он принимает ошибку (сентинел бизнес-слоя), а на выход даёт:
//   - корректный HTTP-статус;
//   - стабильный числовой код для машиночитаемой обработки клиентом;
//   - краткое безопасное message без утечки деталей.
//
// Числовые коды зафиксированы навсегда: клиенты ветвятся по ним, и смена
// значения — ломающее изменение протокола.
package httperr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/go-user-api/internal/service"
)

// ErrUnauthorized — отказ signature-рукопожатия: заголовок отсутствует,
// конверт не открывается или идентичность клиента не совпала. Снаружи все
// эти случаи неразличимы намеренно (анти-фингерпринтинг).
var ErrUnauthorized = errors.New("unauthorized")

// Стабильные доменные коды.
const (
	CodeInternal        = 1
	CodeNotFound        = 100
	CodeBadPassword     = 101
	CodeBadRefresh      = 102
	CodeExpiredRefresh  = 103
	CodeBanned          = 104
	CodeInactive        = 105
	CodeForbidden       = 106
	CodeConflict        = 107
	CodeInvalidArgument = 108
	CodeUnauthorized    = 109
)

// APIError — единый формат для клиента.
// Code — стабильный числовой код; Message — безопасное описание;
// RequestID — прокидывается из X-Request-Id для трассировки;
// Detail — внутренняя диагностика, заполняется только вне production.
type APIError struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку бизнес-слоя в HTTP-статус и унифицированный
// ответ. nil — программная ошибка вызова: возвращаем 500, чтобы не послать
// "200 OK" с телом ошибки. Неизвестные ошибки схлопываются в 500/internal
// без утечки деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := mapError(err)

	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для хендлеров: статус/тело + request_id из заголовка.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	WriteErrorDetail(w, r, err, "")
}

// WriteErrorDetail дополнительно добавляет внутреннюю диагностику.
// Вызывающий обязан передавать detail только вне production.
func WriteErrorDetail(w http.ResponseWriter, r *http.Request, err error, detail string) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}
	resp.Error.Detail = detail

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func mapError(err error) (int, int, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, CodeInternal, "internal error"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, "not found"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, CodeBadPassword, "invalid credentials"
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, CodeBadRefresh, "invalid token"
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, CodeExpiredRefresh, "token expired"
	case errors.Is(err, service.ErrBanned):
		return http.StatusForbidden, CodeBanned, "account banned"
	case errors.Is(err, service.ErrInactive):
		return http.StatusForbidden, CodeInactive, "account inactive"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, CodeForbidden, "forbidden"
	case errors.Is(err, service.ErrAlreadyExists):
		return http.StatusConflict, CodeConflict, "already exists"
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, CodeInvalidArgument, "invalid argument"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, CodeUnauthorized, "unauthorized"
	default:
		return http.StatusInternalServerError, CodeInternal, "internal error"
	}
}
