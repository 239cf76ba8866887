package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/classpulse/feedback-service/internal/services"
	"github.com/classpulse/feedback-service/internal/utils"
)

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	args = append(args, "request_id", c.GetString("request_id"))
	h.logger.Info(msg, args...)
}

// parseIDParam reads a positive integer path parameter, responding 400 and
// returning 0 when it is malformed.
func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
		})
		return 0
	}
	return uint(id)
}

// handleServiceError maps service error types onto HTTP statuses. Anything
// unrecognized is a 500 with the detail kept out of the response body.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var notFound *services.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: notFound.Error()})
		return
	}

	var conflict *services.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: conflict.Error()})
		return
	}

	var validation *services.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: validation.Error()})
		return
	}

	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: err.Error()})
		return
	}

	h.logger.Error("Unhandled service error", "error", err, "path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
}
