package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/compound-data-tool/internal/http/middleware"
	"github.com/tbourn/compound-data-tool/internal/pdbe"
	"github.com/tbourn/compound-data-tool/internal/repo"
	"github.com/tbourn/compound-data-tool/internal/services"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// fail aborts with the envelope. 5xx responses are also logged through the
// request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail, used by the router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failFor maps a service error onto status and code.
func failFor(c *gin.Context, err error) {
	var fe *pdbe.FetchError
	switch {
	case errors.Is(err, services.ErrUnsupportedCompound):
		fail(c, http.StatusUnprocessableEntity, ErrCodeUnsupportedCompound, err.Error())
	case errors.Is(err, services.ErrCompoundNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.As(err, &fe):
		fail(c, http.StatusBadGateway, ErrCodeUpstreamFailed, err.Error())
	case errors.Is(err, pdbe.ErrMalformedResponse):
		fail(c, http.StatusBadGateway, ErrCodeMalformedResponse, err.Error())
	case errors.Is(err, repo.ErrStoreUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "compound store unavailable")
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
