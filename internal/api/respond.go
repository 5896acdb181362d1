package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yanizio/dashgate/internal/auth"
	"github.com/yanizio/dashgate/internal/dashboard"
	"github.com/yanizio/dashgate/internal/provider"
	"github.com/yanizio/dashgate/internal/requestinfo"
	"github.com/yanizio/dashgate/internal/rewrite"
)

const (
	maxJSONBody      = 1 << 20  // 1 MiB
	maxDashboardBody = 16 << 20 // 16 MiB
)

// errBadRequest marks malformed bodies.
var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps a pipeline error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidIdentityFormat),
		errors.Is(err, rewrite.ErrInvalidCustomerID),
		errors.Is(err, rewrite.ErrInvalidOrderID),
		errors.Is(err, dashboard.ErrInvalidName),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, provider.ErrObjectNotAllowed),
		errors.Is(err, rewrite.ErrUnknownObject):
		return http.StatusForbidden
	case errors.Is(err, rewrite.ErrRejectedSQL):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dashboard.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// publicMessage never leaks internal detail on a 500 or a SQL rejection.
func publicMessage(status int, err error) string {
	switch status {
	case http.StatusInternalServerError:
		return "internal error"
	case http.StatusUnprocessableEntity:
		return rewrite.ErrRejectedSQL.Error()
	}
	return err.Error()
}

// writeError logs err with request context and writes the JSON error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	rid := RequestIDFrom(r.Context())

	fields := append([]any{
		"request_id", rid,
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"err", err,
	}, requestinfo.FromContext(r.Context()).LogFields()...)
	if status >= http.StatusInternalServerError {
		s.log.Sugar().Errorw("request failed", fields...)
	} else {
		s.log.Sugar().Infow("request refused", fields...)
	}

	writeJSON(w, status, errorBody{Error: publicMessage(status, err), RequestID: rid})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

// decode reads one JSON value into dst, rejecting unknown fields and
// trailing data, then runs struct validation.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON body", errBadRequest)
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: field %s failed %q", errBadRequest, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
