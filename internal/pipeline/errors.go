package pipeline

import "github.com/cockroachdb/errors"

var (
	// ErrMissingInput marks a source table that could not be located or read.
	ErrMissingInput = errors.New("missing input")

	// ErrInvalidInput marks a source table that was read but cannot be used:
	// undecodable content, a required column absent, or an unparseable value.
	ErrInvalidInput = errors.New("invalid input")
)

func invalid(err error, step string) error {
	return errors.Mark(errors.Wrap(err, step), ErrInvalidInput)
}
