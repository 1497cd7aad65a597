package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/autocharge/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/autocharge/internal/invoice/domain"
	"github.com/smallbiznis/autocharge/pkg/db/pagination"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

// Domain sentinels whose text doubles as the validation code.
var validationSentinels = []error{
	ErrInvalidRequest,
	pagination.ErrInvalidToken,
	customerdomain.ErrInvalidID,
	customerdomain.ErrInvalidCurrency,
	invoicedomain.ErrInvalidID,
	invoicedomain.ErrInvalidCustomer,
	invoicedomain.ErrInvalidAmount,
	invoicedomain.ErrInvalidCurrency,
	invoicedomain.ErrInvalidStatus,
}

var notFoundSentinels = []error{
	ErrNotFound,
	customerdomain.ErrNotFound,
	invoicedomain.ErrNotFound,
	gorm.ErrRecordNotFound,
}

type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FieldErrors is a handler-side validation failure on named inputs.
type FieldErrors []FieldError

func (FieldErrors) Error() string { return "validation error" }

type errorPayload struct {
	Type    string       `json:"type"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func fieldError(field, code, message string) error {
	return FieldErrors{{Field: field, Code: code, Message: message}}
}

func invalidRequestError() error {
	return fieldError("request", ErrInvalidRequest.Error(), "invalid request")
}

// AbortWithError records err for ErrorHandlingMiddleware and stops the chain.
func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandlingMiddleware writes the last handler error as a JSON body
// unless the handler already responded.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		status, payload := mapError(c.Errors.Last().Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func mapError(err error) (int, errorPayload) {
	var fields FieldErrors
	if errors.As(err, &fields) {
		return http.StatusBadRequest, errorPayload{Type: "validation_error", Message: "validation error", Errors: fields}
	}
	if sentinel := matchSentinel(err, validationSentinels); sentinel != nil {
		code := sentinel.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  []FieldError{{Field: strings.TrimPrefix(code, "invalid_"), Code: code, Message: "invalid value"}},
		}
	}
	if matchSentinel(err, notFoundSentinels) != nil {
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "not found"}
	}
	return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
}

func matchSentinel(err error, sentinels []error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

// classifyErrorForLog returns the error type and code for request logs.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, payload.Type
}
