package errs

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/withstack"
)

// PublicError is an error whose message is safe to show to API callers.
// Error handlers translate it into a client error response.
type PublicError struct {
	err     error
	message string
	code    string // optional, identifies the rejection kind to clients
}

func (p PublicError) Error() string {
	return p.err.Error()
}

func (p PublicError) Message() string {
	return p.message
}

func (p PublicError) Code() string {
	return p.code
}

func (p PublicError) Unwrap() error {
	return p.err
}

func NewPublicError(message string) error {
	return withstack.WithStackDepth(&PublicError{err: errors.New(message), message: message}, 1)
}

// WithPublicMessage wraps err so that "<prefix>: <err>" is shown to the caller.
// Returns nil if err is nil.
func WithPublicMessage(err error, prefix string) error {
	return withPublicMessage(err, prefix, "")
}

func WithPublicMessageCode(err error, prefix string, code string) error {
	return withPublicMessage(err, prefix, code)
}

func withPublicMessage(err error, prefix string, code string) error {
	if err == nil {
		return nil
	}
	message := err.Error()
	if prefix != "" {
		message = fmt.Sprintf("%s: %s", prefix, message)
	}
	return withstack.WithStackDepth(&PublicError{err: err, message: message, code: code}, 2)
}
