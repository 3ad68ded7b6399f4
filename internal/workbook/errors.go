package workbook

import (
	"errors"
	"fmt"
)

// ErrEmptyWorkbook indicates an upload without content.
var ErrEmptyWorkbook = errors.New("workbook is empty")

// ErrInvalidWorkbook indicates the input is not a readable xlsx workbook.
var ErrInvalidWorkbook = errors.New("invalid xlsx workbook")

// LoadError reports which upload could not be read.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot read workbook %q: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is makes every load failure except an empty upload match ErrInvalidWorkbook.
func (e *LoadError) Is(target error) bool {
	return target == ErrInvalidWorkbook && !errors.Is(e.Err, ErrEmptyWorkbook)
}
