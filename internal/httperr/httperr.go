// httperr стандартизирует ответы об ошибках HTTP-слоя.
// На вход он принимает доменную ошибку сервисного слоя, а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Доменные ошибки маппятся в 4xx; всё неопознанное считается
// инфраструктурным сбоем и уходит как 500/internal.
package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"auth-service/internal/service"
)

// Нестандартный код, часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат ошибки для клиента.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// Fields — пофайловая расшифровка ошибок валидации (поле → сообщение).
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует доменную ошибку в HTTP-статус и унифицированный ответ.
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := mapError(err)

	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)
	write(w, r, status, resp)
}

// WriteValidationError — ответ 400 с разбивкой ошибок по полям запроса.
func WriteValidationError(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	resp := ErrorResponse{
		Error: APIError{
			Code:    "invalid_argument",
			Message: "validation failed",
			Fields:  fields,
		},
	}
	write(w, r, http.StatusBadRequest, resp)
}

func write(w http.ResponseWriter, r *http.Request, status int, resp ErrorResponse) {
	// Прокидываем request_id, чтобы клиент мог репортить проблемы с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// mapError — таблица доменная ошибка → HTTP/код/сообщение.
//   - неверные учётные данные, битый/просроченный токен,
//     отсутствующий subject или refresh-токен → 401;
//   - refresh-токен от чужого пользователя → 400;
//   - занятый username → 409;
//   - отменённый клиентом запрос → 499, дедлайн → 504;
//   - прочее — инфраструктура → 500 без деталей.
func mapError(err error) (int, string, string) {
	switch {
	case err == nil:
		// Программная ошибка вызова: не маскируем баг успешным статусом.
		return http.StatusInternalServerError, "internal", "internal error"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", "invalid credentials"
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict, "username_taken", "username already taken"
	case errors.Is(err, service.ErrTokenPairMismatch):
		return http.StatusBadRequest, "token_pair_mismatch", "token pair mismatch"
	case errors.Is(err, service.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, "refresh_token_expired", "refresh token expired"
	case errors.Is(err, service.ErrRefreshTokenNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
