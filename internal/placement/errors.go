package placement

import "fmt"

// ValidationError reports input that cannot be labeled. A run that fails
// validation has no side effects.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Reason
}

// DrawingError reports a failure of the drawing stage. Labels placed
// before the failure stay on the image.
type DrawingError struct {
	// Index of the anchor that failed.
	Index int
	// Placed is the number of labels drawn before the failure.
	Placed int
	Err    error
}

func (e *DrawingError) Error() string {
	return fmt.Sprintf("drawing label %d failed after %d placed: %v", e.Index+1, e.Placed, e.Err)
}

func (e *DrawingError) Unwrap() error { return e.Err }
