package config

import "fmt"

// Error is raised for an unknown scheduler policy string or a non-positive
// override where positivity is required (spec.md §7's ConfigError).
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config error: %s", e.Reason)
}

func errorf(format string, args ...any) error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}
