// Package selection хранит текущий выбор покупателя в памяти.
package selection

import (
	"math"
	"sync"

	"github.com/mmeshcher/storefront-core/internal/apperror"
	"github.com/mmeshcher/storefront-core/internal/model"
)

// MaxQuantity ограничивает количество одного товара: столбец order_items.quantity имеет тип INTEGER.
const MaxQuantity = math.MaxInt32

// Store хранит строки выбора одного клиента. Итог всегда вычисляется из строк.
type Store struct {
	mu    sync.Mutex
	lines []model.SelectionLine

	submitMu sync.Mutex
}

// NewStore создаёт пустой выбор.
func NewStore() *Store {
	return &Store{}
}

// AddLine добавляет товар в выбор. Если строка уже есть, увеличивает количество.
// Количество меньше единицы трактуется как одна штука.
func (s *Store) AddLine(productID, name string, unitPrice int64, imageRef string, qty int) error {
	if productID == "" {
		return apperror.Validation("product id is required")
	}
	if unitPrice < 0 {
		return apperror.Validation("unit price %d is negative", unitPrice)
	}
	if qty < 1 {
		qty = 1
	}
	if qty > MaxQuantity {
		return apperror.Validation("quantity %d exceeds %d", qty, MaxQuantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(productID); i >= 0 {
		if s.lines[i].Quantity > MaxQuantity-qty {
			return apperror.Validation("quantity of %s would exceed %d", productID, MaxQuantity)
		}
		line := s.lines[i]
		line.Quantity += qty
		if err := s.checkTotal(i, line); err != nil {
			return err
		}
		s.lines[i] = line
		return nil
	}

	line := model.SelectionLine{
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  qty,
		ImageRef:  imageRef,
	}
	if err := s.checkTotal(-1, line); err != nil {
		return err
	}
	s.lines = append(s.lines, line)
	return nil
}

// RemoveLine удаляет строку товара. Отсутствие строки не считается ошибкой.
func (s *Store) RemoveLine(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(productID); i >= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
}

// SetQuantity задаёт количество товара. Нулевое количество оставляет строку в выборе.
func (s *Store) SetQuantity(productID string, qty int) error {
	if qty < 0 {
		return apperror.Validation("quantity %d is negative", qty)
	}
	if qty > MaxQuantity {
		return apperror.Validation("quantity %d exceeds %d", qty, MaxQuantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(productID); i >= 0 {
		line := s.lines[i]
		line.Quantity = qty
		if err := s.checkTotal(i, line); err != nil {
			return err
		}
		s.lines[i] = line
	}
	return nil
}

// Submit передаёт fn согласованный снимок строк и итога. Одновременно выполняется
// не больше одного Submit. Если fn завершилась без ошибки, заказанные количества
// вычитаются из выбора: строки, добавленные во время fn, остаются. При ошибке выбор не меняется.
func (s *Store) Submit(fn func(lines []model.SelectionLine, total int64) error) error {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	lines, total := s.Snapshot()
	if err := fn(lines, total); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]model.SelectionLine, 0, len(s.lines))
	for _, l := range s.lines {
		if i := indexIn(lines, l.ProductID); i >= 0 {
			l.Quantity -= lines[i].Quantity
			if l.Quantity <= 0 {
				continue
			}
		}
		kept = append(kept, l)
	}
	s.lines = kept
	return nil
}

// Clear очищает выбор.
func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()
}

// Lines возвращает копию строк в порядке добавления.
func (s *Store) Lines() []model.SelectionLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.SelectionLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Total возвращает сумму строк в центах.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return total(s.lines)
}

// Snapshot возвращает строки и итог, согласованные между собой.
func (s *Store) Snapshot() ([]model.SelectionLine, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.SelectionLine, len(s.lines))
	copy(out, s.lines)
	return out, total(out)
}

// Len возвращает число строк, включая строки с нулевым количеством.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.lines)
}

func (s *Store) indexOf(productID string) int {
	return indexIn(s.lines, productID)
}

func indexIn(lines []model.SelectionLine, productID string) int {
	for i := range lines {
		if lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// checkTotal проверяет, что итог с line на месте строки i (или в конце при i < 0) помещается в int64.
func (s *Store) checkTotal(i int, line model.SelectionLine) error {
	if line.Quantity > 0 && line.UnitPrice > math.MaxInt64/int64(line.Quantity) {
		return apperror.Validation("subtotal of %s overflows", line.ProductID)
	}

	sum := line.Subtotal()
	for j, l := range s.lines {
		if j == i {
			continue
		}
		sub := l.Subtotal()
		if sum > math.MaxInt64-sub {
			return apperror.Validation("selection total overflows")
		}
		sum += sub
	}
	return nil
}

func total(lines []model.SelectionLine) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum
}
