package apperrors

import (
	"net/http"
)

// =========================================================================
// Фабрики для оборачивания ошибок репозиториев и внешних систем
// =========================================================================

// ErrNotFound - фабрика для ошибки "не найдено" (404)
func ErrNotFound(err error, domain, message string) *AppError {
	return Wrap(err, CodeNotFound, domain, message, http.StatusNotFound)
}

// ErrAlreadyExists - фабрика для ошибки "уже существует" (409)
func ErrAlreadyExists(err error, domain, message string) *AppError {
	return Wrap(err, CodeAlreadyExists, domain, message, http.StatusConflict)
}

// ErrConflict - общая фабрика для конфликтов (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidStatus - операция невозможна в текущем статусе (409)
func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusConflict)
}

// ErrUpstreamGateway - провайдер платежей вернул ошибку (502)
func ErrUpstreamGateway(err error, message string) *AppError {
	return Wrap(err, CodeUpstreamGateway, "payment", message, http.StatusBadGateway)
}

// ErrNetwork - временная ошибка, клиент может повторить запрос (503)
func ErrNetwork(err error, domain string) *AppError {
	return Wrap(err, CodeNetworkError, domain, "Temporary network failure, please retry", http.StatusServiceUnavailable).
		WithDetails(map[string]bool{"retryable": true})
}

// ErrPayloadTooLarge - файл превышает лимит (413)
func ErrPayloadTooLarge(limit int64) *AppError {
	return New(CodePayloadTooLarge, "upload", "File size exceeds the allowed limit", http.StatusRequestEntityTooLarge).
		WithDetails(map[string]int64{"max_bytes": limit})
}

// =========================================================================
// Предопределенные ошибки
// =========================================================================

var ErrRevisionLimitExceeded = New(
	CodeRevisionLimit,
	"order",
	"Revision limit reached, waiting for response",
	http.StatusConflict,
)

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

var ErrSessionRequired = New(
	CodeUnauthorized,
	"auth",
	"User not authenticated",
	http.StatusUnauthorized,
)

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already in use",
	http.StatusConflict,
)

var ErrConcurrentModification = New(
	CodeConflict,
	"system",
	"Resource was modified by another request, reload and retry",
	http.StatusConflict,
)
