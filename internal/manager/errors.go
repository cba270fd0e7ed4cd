package manager

import "errors"

var (
	// ErrValidation - клиент прислал задачу без заголовка
	ErrValidation = errors.New("title is required")
	// ErrNotFound - задачи с таким ID нет
	ErrNotFound = errors.New("todo not found")
)

// InternalError - любой неожиданный сбой хранилища
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
