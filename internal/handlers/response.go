package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"procurement-transparency/internal/service"

	"github.com/gin-gonic/gin"
)

// Коды ответа в поле code: 0 — успех, иначе HTTP-статус * 100 + номер.
const (
	CodeOK            = 0
	CodeInvalidInput  = 40001
	CodeBadJSON       = 40002
	CodeUnauthorized  = 40101
	CodeBadToken      = 40103
	CodeBadLogin      = 40104
	CodeForbidden     = 40301
	CodeNotFound      = 40401
	CodeConflict      = 40901
	CodeInternalError = 50001
)

func success(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, data)
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"code":    CodeOK,
		"message": "success",
		"data":    data,
	})
}

func fail(c *gin.Context, status, code int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":    code,
		"message": message,
		"data":    nil,
	})
}

// failValidation reports the offending field next to the message.
func failValidation(c *gin.Context, ve *service.ValidationError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"code":    CodeInvalidInput,
		"message": ve.Error(),
		"data": gin.H{
			"field": ve.Field,
			"rule":  ve.Rule,
		},
	})
}

// handleError maps service errors to responses.
func handleError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		failValidation(c, ve)
	case errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, service.ErrReviewNotFound),
		errors.Is(err, service.ErrUserNotFound):
		fail(c, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, CodeBadLogin, err.Error())
	case errors.Is(err, service.ErrUserExists):
		fail(c, http.StatusConflict, CodeConflict, err.Error())
	default:
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
		fail(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
	}
}

// bindJSON decodes the request body; a malformed body is answered here.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, CodeBadJSON, "malformed JSON body: "+err.Error())
		return false
	}
	return true
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &service.ValidationError{Field: name, Rule: "number"}
	}
	return v, nil
}

// queryFloat reads an optional numeric query parameter; nil when absent.
func queryFloat(c *gin.Context, name string) (*float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &service.ValidationError{Field: name, Rule: "number"}
	}
	return &v, nil
}
