package sqlgen

import (
	"fmt"

	"github.com/pkg/errors"
)

// CompilationError reports an expression shape that cannot be translated.
type CompilationError struct {
	Reason string
}

func (e *CompilationError) Error() string {
	return "search compilation error: " + e.Reason
}

func NewCompilationError(format string, args ...any) error {
	return errors.WithStack(&CompilationError{Reason: fmt.Sprintf(format, args...)})
}

// IsCompilationError unwraps err looking for a *CompilationError.
func IsCompilationError(err error) bool {
	var target *CompilationError
	return errors.As(err, &target)
}
