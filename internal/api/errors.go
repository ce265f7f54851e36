package api

import (
	"errors"
	"net/http"

	"storefront/internal/service"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error codes carried in the "code" field of error bodies
const (
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodeValidation      = "validation"
	CodeConflict        = "conflict"
	CodePartialFailure  = "partial_failure"
	CodeRateLimited     = "rate_limited"
	CodeInternal        = "internal"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error     string   `json:"error"`
	Code      string   `json:"code"`
	Details   string   `json:"details,omitempty"`
	Operation string   `json:"operation,omitempty"`
	Completed []string `json:"completed,omitempty"`
	Failed    string   `json:"failed,omitempty"`
}

func abortWith(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code})
}

func badRequest(c *gin.Context, message string, err error) {
	resp := ErrorResponse{Error: message, Code: CodeValidation}
	if err != nil {
		resp.Details = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}

// respondError maps a service error onto a status code and body
func respondError(c *gin.Context, err error) {
	var pf *service.PartialFailureError
	switch {
	case errors.As(err, &pf):
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "Operation partially applied",
			Code:      CodePartialFailure,
			Details:   pf.Err.Error(),
			Operation: pf.Operation,
			Completed: pf.Completed,
			Failed:    pf.Failed,
		})
	case errors.Is(err, service.ErrUnauthenticated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Code: CodeUnauthenticated})
	case errors.Is(err, service.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: CodeForbidden})
	case errors.Is(err, service.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: CodeNotFound})
	case errors.Is(err, service.ErrValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeValidation})
	case errors.Is(err, service.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: CodeConflict})
	default:
		util.GetLogger().Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
			Code:  CodeInternal,
		})
	}
}
