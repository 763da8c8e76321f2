// Package apperror описывает классы ошибок ядра витрины.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation возвращается при нарушении предусловия до обращения к хранилищу.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence возвращается, если операция с удалённым хранилищем завершилась ошибкой.
	ErrPersistence = errors.New("persistence failed")
	// ErrAuthorization возвращается, если у сессии недостаточно прав.
	ErrAuthorization = errors.New("not authorized")
)

// PartialWriteError сообщает, что заголовок заказа создан, а его позиции нет,
// и компенсирующее удаление тоже не удалось. Оператор должен сверить OrderID.
type PartialWriteError struct {
	OrderID string
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("order %s persisted without lines: %v", e.OrderID, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// Validation оборачивает описание в ErrValidation.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Persistence оборачивает ошибку хранилища в ErrPersistence, сохраняя исходную цепочку.
func Persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
