package cli

import "fmt"

// UsageError marks an invalid invocation (bad flags/args) distinct from a
// runtime failure, so main can map it to exit code 2 per spec.md §6.
type UsageError struct {
	msg string
}

func (e *UsageError) Error() string { return e.msg }

// Usagef builds a UsageError with a formatted message.
func Usagef(format string, args ...interface{}) error {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}
