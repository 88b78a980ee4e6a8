// Package response renders the API's JSON envelope. Every endpoint answers
// {success, data?, error?, meta?}; field names are camelCase like the rest
// of the wire format.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/taskrythm/taskrythm/pkg/errors"
)

// Envelope is the shape of every API response body.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo carries the client-facing error code and message.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta describes pagination of a list response.
type Meta struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"perPage,omitempty"`
	Total      int `json:"total,omitempty"`
	TotalPages int `json:"totalPages,omitempty"`
}

// Success writes data under a success envelope with the given status.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Envelope{Success: true, Data: data})
}

// Created is Success with 201, for resource-creating endpoints.
func Created(c *gin.Context, data any) {
	Success(c, http.StatusCreated, data)
}

// SuccessWithMeta writes a paginated list response.
func SuccessWithMeta(c *gin.Context, statusCode int, data any, meta *Meta) {
	c.JSON(statusCode, Envelope{Success: true, Data: data, Meta: meta})
}

// Error maps err onto the envelope via the AppError taxonomy. Non-AppErrors
// render as an opaque 500; their detail belongs in logs, not responses.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr == nil {
		appErr = appErrors.ErrInternalServer
	}

	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, Envelope{
		Success: false,
		Error:   &ErrorInfo{Code: appErr.Code, Message: appErr.Message},
	})
}
