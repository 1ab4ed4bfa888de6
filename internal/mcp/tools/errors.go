package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/usestring/pmsinspect-mcp/internal/schema"
	"github.com/usestring/pmsinspect-mcp/internal/session"
	"github.com/usestring/pmsinspect-mcp/pkg/client"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotConnected = "NOT_CONNECTED"
	ErrCodeAPIError     = "API_ERROR"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeStale        = "STALE"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapError converts session, client and query errors to a coded error.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded
	}

	var (
		qerr   *types.QueryError
		apiErr *client.APIError
		netErr net.Error
	)
	switch {
	case errors.As(err, &qerr):
		coded = &CodedError{Code: queryErrorCode(qerr.Code), Message: qerr.Message, Cause: err}
	case errors.Is(err, session.ErrStale):
		coded = &CodedError{Code: ErrCodeStale, Message: "platform was disconnected or reconnected meanwhile", Cause: err}
	case errors.Is(err, schema.ErrNoCatalog):
		coded = &CodedError{Code: ErrCodeNotFound, Message: "no endpoint catalog for platform", Cause: err}
	case errors.As(err, &apiErr):
		code := ErrCodeAPIError
		if apiErr.StatusCode == http.StatusNotFound {
			code = ErrCodeNotFound
		}
		coded = &CodedError{Code: code, Message: apiErr.Message, Cause: err}
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		coded = &CodedError{Code: ErrCodeTimeout, Message: "request timed out", Cause: err}
	default:
		coded = &CodedError{Code: ErrCodeAPIError, Message: err.Error(), Cause: err}
	}

	slog.Warn("tool error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)

	return coded
}

func queryErrorCode(code string) string {
	switch code {
	case types.CodeValidation:
		return ErrCodeInvalidInput
	case types.CodeConnectionError:
		return ErrCodeNotConnected
	default:
		return ErrCodeAPIError
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
