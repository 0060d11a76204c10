package util

import (
	"errors"
	"net/http"

	"vocab_srs_backend/internal/fsrs"
	"vocab_srs_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the unified JSON envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// RespondError maps a scheduler error onto the envelope. The status codes
// distinguish "retry" (409), "resync" (422), "nothing to do" (200 no-op
// handled by the caller) and caller bugs (400/404).
func RespondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, fsrs.ErrInvalidRating), errors.Is(err, fsrs.ErrInvalidWeights):
		BadRequest(c, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDeckNotFound),
		errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrJobNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConcurrency), errors.Is(err, ErrSessionBusy):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidStage), errors.Is(err, ErrEmptyQueue), errors.Is(err, ErrSessionEnded):
		Error(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrInsufficientData):
		Error(c, http.StatusPreconditionFailed, err.Error())
	default:
		LogInternalError(c, err)
	}
}
