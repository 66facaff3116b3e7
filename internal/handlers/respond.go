package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/mroshb/jeju_points/internal/middleware"
	"github.com/mroshb/jeju_points/pkg/errors"
	"github.com/mroshb/jeju_points/pkg/logger"
)

// statusByCode maps business error codes onto HTTP statuses. Unlisted
// codes, including INTERNAL_ERROR, become 503 so clients retry.
var statusByCode = map[string]int{
	errors.ErrCodeValidation:        http.StatusBadRequest,
	errors.ErrCodeUnauthorized:      http.StatusUnauthorized,
	errors.ErrCodeForbidden:         http.StatusForbidden,
	errors.ErrCodeNotFound:          http.StatusNotFound,
	errors.ErrCodeBoxNotFound:       http.StatusNotFound,
	errors.ErrCodeInsufficientFunds: http.StatusConflict,
	errors.ErrCodeAlreadyExists:     http.StatusConflict,
	errors.ErrCodeSelfClaim:         http.StatusConflict,
	errors.ErrCodeBoxClosed:         http.StatusConflict,
	errors.ErrCodeAlreadyClaimed:    http.StatusConflict,
	errors.ErrCodeSoldOut:           http.StatusConflict,
	errors.ErrCodePoolEmpty:         http.StatusConflict,
	errors.ErrCodeLedgerMismatch:    http.StatusConflict,
	errors.ErrCodeBoxExpired:        http.StatusGone,
	errors.ErrCodeRateLimitExceeded: http.StatusTooManyRequests,
}

func statusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusServiceUnavailable
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func writeErr(w http.ResponseWriter, err error) {
	code := errors.CodeOf(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		middleware.WriteError(w, status, errors.ErrCodeInternalError, "temporarily unavailable, please try again")
		return
	}
	middleware.WriteError(w, status, code, errors.MessageOf(err))
}

// decode reads a JSON body into dst and validates it.
func (h *HandlerManager) decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.Wrap(err, errors.ErrCodeValidation, "request body is not valid JSON")
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.New(errors.ErrCodeValidation, fmt.Sprintf("%s failed the %s rule", fe.Field(), fe.Tag()))
		}
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid request")
	}
	return nil
}
