// Package graphql provides a GraphQL HTTP client for communicating with the
// issue tracker API.
package graphql

import (
	"context"
	"fmt"
	"strings"
)

// CodeBadUserInput is the extension code servers use for input validation
// failures. Its details live in extensions.exception.errors.
const CodeBadUserInput = "BAD_USER_INPUT"

// Request is the JSON body of a GraphQL HTTP request.
type Request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// Envelope is a decoded GraphQL response body.
type Envelope struct {
	Data   any     `json:"data"`
	Errors []Error `json:"errors"`
}

// Error represents a single error returned in a GraphQL response.
type Error struct {
	Message    string     `json:"message"`
	Extensions Extensions `json:"extensions"`
}

// Extensions is the extension block of a GraphQL error.
type Extensions struct {
	Code      string    `json:"code"`
	Exception Exception `json:"exception"`
}

// Exception carries per-field validation details for BAD_USER_INPUT errors.
type Exception struct {
	Errors []string `json:"errors"`
}

// Client defines the interface for executing GraphQL queries.
//
// Do returns the response's data payload together with an error describing
// the first GraphQL error, if any. A server-reported error does not discard
// the data; a transport failure returns nil data.
type Client interface {
	Do(ctx context.Context, query string, variables map[string]any) (any, error)
}

// ResponseError is a GraphQL-level error taken from the first entry of a
// response's errors list.
type ResponseError struct {
	Message string
	Code    string
	Details []string
}

// Error renders the user-facing alert text for the error.
func (e *ResponseError) Error() string {
	if e.Code == CodeBadUserInput {
		return fmt.Sprintf("%s:\n %s", e.Message, strings.Join(e.Details, "\n "))
	}
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// TransportError wraps a failure to send the request or read its response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Error in sending data to server: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// classify converts the first entry of errs into a ResponseError, or returns
// nil when errs is empty.
func classify(errs []Error) error {
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	re := &ResponseError{
		Message: first.Message,
		Code:    first.Extensions.Code,
	}
	if re.Code == CodeBadUserInput {
		re.Details = first.Extensions.Exception.Errors
	}
	return re
}
