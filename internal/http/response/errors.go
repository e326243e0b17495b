package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

// StatusFor maps an aggregate error code to its HTTP status.
func StatusFor(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeConflict:
		return http.StatusConflict
	case domainagg.CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error renders err as an error envelope. Internal failures get a generic message; the
// cause is logged.
func Error(c *gin.Context, log *logger.Logger, err error) {
	var aggErr *domainagg.Error
	if !errors.As(err, &aggErr) || aggErr.Code == domainagg.CodeInternal || aggErr.Code == "" {
		if log != nil {
			log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		}
		c.JSON(http.StatusInternalServerError, ErrorEnvelope{
			Error: APIError{Message: "internal error", Code: string(domainagg.CodeInternal)},
		})
		return
	}
	c.JSON(StatusFor(aggErr.Code), ErrorEnvelope{
		Error: APIError{
			Message: aggErr.Message,
			Code:    string(aggErr.Code),
			IDs:     aggErr.IDs,
		},
	})
}

func BadBody(c *gin.Context, err error) {
	RespondError(c, http.StatusBadRequest, string(domainagg.CodeBadRequest), err)
}
