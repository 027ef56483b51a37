package task

import "fmt"

// PanicError reports a task that panicked while executing.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}
