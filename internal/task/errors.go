package task

import "errors"

var (
	ErrEmptyTitle      = errors.New("title must not be empty")
	ErrInvalidPriority = errors.New("priority must be one of high, medium, low")
	ErrInvalidDate     = errors.New("date must look like YYYY-MM-DD")
)
