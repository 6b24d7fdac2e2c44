package transport

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport wraps network failures, unexpected HTTP statuses and
	// unreadable responses.
	ErrTransport = errors.New("indexer transport failure")
	// ErrNotFound is returned by the single-record helpers when the indexer
	// answered with no record.
	ErrNotFound = errors.New("record not found")
)

// GraphQLError is one entry of the errors array of a response.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Locations  []Location     `json:"locations,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Location points into the query document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// RemoteError means the indexer received the document and rejected it.
type RemoteError struct {
	StatusCode int
	Errors     []GraphQLError
}

func (e *RemoteError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Message
	}
	return fmt.Sprintf("indexer rejected query (status %d): %s", e.StatusCode, strings.Join(msgs, "; "))
}

// IsRemoteRejection reports whether err is a GraphQL-level rejection.
func IsRemoteRejection(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// IsTransportFailure reports whether err is a network or protocol failure.
func IsTransportFailure(err error) bool {
	return errors.Is(err, ErrTransport)
}

func transportError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTransport, fmt.Sprintf(format, args...))
}
