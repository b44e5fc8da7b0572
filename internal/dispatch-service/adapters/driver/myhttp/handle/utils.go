package handle

import (
	"encoding/json"
	"errors"
	"net/http"

	"flytaxi/internal/dispatch-service/core/myerrors"
)

func jsonResponse(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func JsonError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
		"code":  code,
	})
}

// statusFor maps service sentinels onto HTTP statuses; anything unmapped is
// a server fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, myerrors.ErrOrderNotFound),
		errors.Is(err, myerrors.ErrDriverNotFound):
		return http.StatusNotFound
	case errors.Is(err, myerrors.ErrDriverBusy):
		return http.StatusConflict
	case errors.Is(err, myerrors.ErrNotYourOrder),
		errors.Is(err, myerrors.ErrDriverNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, myerrors.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, myerrors.ErrInvalidOrder),
		errors.Is(err, myerrors.ErrInvalidSettings):
		return http.StatusBadRequest
	case errors.Is(err, myerrors.ErrBadCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
