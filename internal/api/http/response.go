package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	gerr "github.com/jekabolt/grbpwr-analytics/internal/errors"
	clientid "github.com/jekabolt/grbpwr-analytics/internal/middleware"
	"github.com/jekabolt/grbpwr-analytics/internal/ratelimit"
)

type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText string `json:"status"`          // user-level status message
	ErrorText  string `json:"error,omitempty"` // application-level error message, for debugging
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errResponse(err error, code int) *ErrResponse {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: code,
		StatusText:     http.StatusText(code),
		ErrorText:      err.Error(),
	}
}

func ErrInvalidRequest(err error) render.Renderer {
	return errResponse(err, http.StatusBadRequest)
}

var ErrNotFound = &ErrResponse{HTTPStatusCode: http.StatusNotFound, StatusText: "Resource not found."}

// statusOf maps domain sentinels to http status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, gerr.ErrInvalidFilter), errors.Is(err, gerr.ErrInvalidDelta):
		return http.StatusBadRequest
	case errors.Is(err, gerr.ErrUnknownZone):
		return http.StatusNotFound
	case errors.Is(err, gerr.ErrMissingTable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ratelimit.ErrLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, gerr.ErrNoSnapshot):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	attrs := []any{
		slog.String("path", r.URL.Path),
		slog.String("client_ip", clientid.GetClientIP(r.Context())),
		slog.String("client_session", clientid.GetClientSession(r.Context())),
		slog.String("err", err.Error()),
	}
	switch {
	case code >= http.StatusInternalServerError:
		slog.Default().ErrorContext(r.Context(), "request failed", attrs...)
	case code == http.StatusTooManyRequests:
		slog.Default().WarnContext(r.Context(), "request rate limited", attrs...)
	}
	render.Render(w, r, errResponse(err, code))
}

func renderJSON(w http.ResponseWriter, r *http.Request, v any) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, v)
}
