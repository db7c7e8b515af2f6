// Package http exposes the pipeline and sessions as a JSON API over gin.
// Every response uses the {code, message, data} envelope.
package http

import (
	"context"
	"errors"
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// Response codes. Zero is success; the rest are HTTP status times 100 plus a
// discriminator.
const (
	CodeOK                = 0
	CodeBadRequest        = 40000
	CodeParse             = 40001
	CodeNotFound          = 40400
	CodeSessionNotFound   = 40401
	CodeNoIndex           = 40900
	CodeEmptyIndex        = 40901
	CodeIngestInProgress  = 40902
	CodeInternalServer    = 50000
	CodeConfiguration     = 50001
	CodeEmbeddingService  = 50200
	CodeGenerationService = 50201
	CodeTimeout           = 50400
)

// APIResponse is the response envelope.
type APIResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// OK writes a success envelope.
func OK(c *gin.Context, data any) {
	c.JSON(nethttp.StatusOK, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

// Error writes an error envelope.
func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

// Fail maps a domain error to an HTTP status and response code.
func Fail(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= nethttp.StatusInternalServerError {
		_ = c.Error(err) //nolint:errcheck // recorded for the request logger
	}
	Error(c, status, code, err.Error())
}

func classify(err error) (status, code int) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return nethttp.StatusBadRequest, CodeBadRequest
	case errors.Is(err, domain.ErrParse):
		return nethttp.StatusBadRequest, CodeParse
	case errors.Is(err, domain.ErrSessionNotFound):
		return nethttp.StatusNotFound, CodeSessionNotFound
	case errors.Is(err, domain.ErrNotFound):
		return nethttp.StatusNotFound, CodeNotFound
	case errors.Is(err, domain.ErrNoIndex):
		return nethttp.StatusConflict, CodeNoIndex
	case errors.Is(err, domain.ErrEmptyIndex):
		return nethttp.StatusConflict, CodeEmptyIndex
	case errors.Is(err, domain.ErrIngestInProgress):
		return nethttp.StatusConflict, CodeIngestInProgress
	case errors.Is(err, domain.ErrConfiguration):
		return nethttp.StatusInternalServerError, CodeConfiguration
	case errors.Is(err, domain.ErrEmbeddingService):
		return nethttp.StatusBadGateway, CodeEmbeddingService
	case errors.Is(err, domain.ErrGenerationService):
		return nethttp.StatusBadGateway, CodeGenerationService
	case errors.Is(err, context.DeadlineExceeded):
		return nethttp.StatusGatewayTimeout, CodeTimeout
	default:
		return nethttp.StatusInternalServerError, CodeInternalServer
	}
}
