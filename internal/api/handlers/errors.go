package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/bike-sharing/internal/api/dto"
	apperrors "github.com/gocomet/bike-sharing/pkg/errors"
	"github.com/gocomet/bike-sharing/pkg/logger"
)

// errorStatus maps err to its HTTP status and body
func errorStatus(err error) (int, dto.ErrorResponse) {
	if apperrors.IsAppError(err) {
		appErr := apperrors.GetAppError(err)
		return appErr.Status, dto.ErrorResponse{Code: appErr.Code, Message: appErr.Message}
	}
	return http.StatusInternalServerError, dto.ErrorResponse{
		Code:    "INTERNAL_ERROR",
		Message: "An unexpected error occurred",
	}
}

// respondError renders err. Business errors are logged at debug, anything
// else (storage failures included) at error.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status, body := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("Request failed",
			logger.String("method", c.Request.Method),
			logger.String("path", c.FullPath()),
			logger.Bool("storage", apperrors.IsStorageError(err)),
			logger.Err(err),
		)
	} else {
		h.Logger.Debug("Request rejected",
			logger.String("path", c.FullPath()),
			logger.String("code", body.Code),
		)
		h.Metrics.RecordRejection(body.Code)
	}
	c.AbortWithStatusJSON(status, body)
}

func (h *Handlers) badRequest(c *gin.Context, err error) {
	h.respondError(c, apperrors.BadRequest("Invalid request payload", err))
}
