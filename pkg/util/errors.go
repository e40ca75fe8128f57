package util

import (
	"strings"
)

// ListOfErrors is used when we want to return more then one error.
// This happens when we want to keep going and accumulate errors
type ListOfErrors struct {
	Causes []error
	Final  error
}

// Error returns a single error wrapping all the errors.
func (l *ListOfErrors) Error() string {
	m := ""
	if l.Final != nil {
		m = l.Final.Error() + "; "
	}
	m = m + "Causes: "

	c := []string{}
	for _, i := range l.Causes {
		c = append(c, i.Error())
	}

	m = m + strings.Join(c, ",")
	return m
}

// AddCause adds an error to the list.
func (l *ListOfErrors) AddCause(e error) {
	l.Causes = append(l.Causes, e)
}

// Unwrap returns the causes so errors.Is and errors.As consider all of them.
func (l *ListOfErrors) Unwrap() []error {
	return l.Causes
}

// ErrorOrNil returns nil if no causes were added and the list otherwise.
func (l *ListOfErrors) ErrorOrNil() error {
	if l == nil || len(l.Causes) == 0 {
		return nil
	}
	return l
}
