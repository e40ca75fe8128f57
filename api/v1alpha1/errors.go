package v1alpha1

import "fmt"

// ErrorKind classifies the errors returned when converting a task.
// ErrorKinds are errors so they can be used as targets for errors.Is.
type ErrorKind string

const (
	// InvalidTask means the task violates a structural precondition e.g. it has no executors.
	InvalidTask ErrorKind = "InvalidTask"
	// NameGenerationFailed means a unique name couldn't be generated for the task.
	NameGenerationFailed ErrorKind = "NameGenerationFailed"
	// EncodingFailed means some part of the task or the plan couldn't be serialized.
	EncodingFailed ErrorKind = "EncodingFailed"
)

func (e ErrorKind) Error() string {
	return string(e)
}

// NoExecutor is the value of ConversionError.Executor when the error isn't specific to an executor.
const NoExecutor = -1

// ConversionError is the error returned when a task can't be converted.
type ConversionError struct {
	Kind ErrorKind
	// Executor is the index of the executor the error relates to or NoExecutor.
	Executor int
	// Field is the path of the offending field e.g. "inputs[2].path". Optional.
	Field string
	Err   error
}

func (e *ConversionError) Error() string {
	m := string(e.Kind)
	if e.Executor != NoExecutor {
		m = fmt.Sprintf("%s: executor %d", m, e.Executor)
	}
	if e.Field != "" {
		m = fmt.Sprintf("%s: field %s", m, e.Field)
	}
	if e.Err != nil {
		m = fmt.Sprintf("%s: %v", m, e.Err)
	}
	return m
}

// Unwrap func to unwrap a wrapped err
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of this error.
func (e *ConversionError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// NewConversionError is a helper to construct a ConversionError.
func NewConversionError(kind ErrorKind, executor int, field string, err error) *ConversionError {
	return &ConversionError{
		Kind:     kind,
		Executor: executor,
		Field:    field,
		Err:      err,
	}
}
