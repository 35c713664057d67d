package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
)

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// errorStatus maps a service error to an HTTP status and a client-safe message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, common.ErrorInvalidCredentials):
		return http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, common.ErrorDuplicateUser):
		return http.StatusConflict, "User already exists"
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "Token expired"
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, "Refresh token expired"
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid token"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, "Not authorized"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "Todo not found"
	case errors.Is(err, services.ErrExportsDisabled):
		return http.StatusServiceUnavailable, "Export is not configured"
	case errors.Is(err, common.ErrorStorageUnavailable):
		return http.StatusServiceUnavailable, "Storage unavailable"
	}
	return http.StatusInternalServerError, "Internal server error"
}

func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": ")
	if msg == "" || msg == common.ErrorValidation.Error() {
		return "Invalid request"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func (a *API) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code, msg := errorStatus(err)
	if code == http.StatusInternalServerError {
		a.logger.Error(ctx, "request failed", "error", err.Error())
	}
	writeErrorMessage(w, code, msg)
}
