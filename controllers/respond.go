package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go-storefront/services"
	"go-storefront/utils"

	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

// errorResponse is the body of every failed request
type errorResponse struct {
	Error   string             `json:"error"`
	Details []utils.FieldError `json:"details,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads the request body into v. Unknown fields are ignored.
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return &services.ValidationError{Message: "request body is required"}
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &services.ValidationError{Message: "Invalid input"}
	}
	return nil
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var upstream *services.UpstreamError
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrUnsupportedMethod),
		errors.Is(err, services.ErrNoChallenge),
		errors.Is(err, services.ErrOTPExpired),
		errors.Is(err, services.ErrOTPMismatch):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized), errors.Is(err, utils.ErrInvalidSession):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &upstream):
		if upstream.Service == services.UpstreamIdentity {
			return http.StatusUnauthorized
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as JSON. Unexpected failures are logged and their
// message is not sent to the client.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var ve *services.ValidationError
	if errors.As(err, &ve) {
		resp.Details = ve.Fields
	}
	var upstream *services.UpstreamError
	switch {
	case errors.As(err, &upstream):
		logger.Warn("upstream call failed", zap.String("service", upstream.Service), zap.Error(err))
		if status == http.StatusUnauthorized {
			resp.Error = "could not verify identity"
		} else {
			resp.Error = "could not send email"
		}
	case status == http.StatusInternalServerError:
		logger.Error("request failed", zap.Error(err))
		resp.Error = "internal server error"
	}
	writeJSON(w, status, resp)
}
