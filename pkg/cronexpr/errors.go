package cronexpr

import (
	"errors"
	"fmt"
)

// ErrInvalid is matched by every *ParseError through errors.Is.
var ErrInvalid = errors.New("invalid cron expression")

// ParseError reports the field that failed to parse and the raw expression.
type ParseError struct {
	Field  string // "expression", "second", "minute", ..., "day of week"
	Expr   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("cronexpr: invalid %s in %q", e.Field, e.Expr)
	}
	return fmt.Sprintf("cronexpr: invalid %s in %q: %s", e.Field, e.Expr, e.Reason)
}

func (e *ParseError) Is(target error) bool { return target == ErrInvalid }
