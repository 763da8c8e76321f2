// Package catalog компилирует фильтры каталога в параметризованный SQL.
package catalog

import (
	"fmt"
	"strings"

	"github.com/mmeshcher/storefront-core/internal/apperror"
)

// Filter задаёт один из вариантов фильтра каталога.
type Filter interface {
	isFilter()
}

// NameContains отбирает товары, в названии которых есть подстрока без учёта регистра.
type NameContains struct {
	Text string
}

// PriceRange отбирает товары с ценой в центах из отрезка [Min, Max].
type PriceRange struct {
	Min int64
	Max int64
}

// InStock отбирает товары с положительным остатком.
type InStock struct{}

// InCategory ограничивает выборку одной категорией.
type InCategory struct {
	CategoryID string
}

func (NameContains) isFilter() {}
func (PriceRange) isFilter()   {}
func (InStock) isFilter()      {}
func (InCategory) isFilter()   {}

// Query описывает запрос к каталогу: все фильтры объединяются через AND.
type Query struct {
	Filters []Filter
	Sort    SortKey
}

// ProductColumns перечисляет колонки выборки в порядке сканирования в model.Product.
const ProductColumns = "id, name, COALESCE(description, ''), price, stock, COALESCE(category_id, ''), image_url, created_at"

// Compile строит SELECT по товарам. Порядок всегда завершается id ASC,
// поэтому равные по ключу сортировки товары идут детерминированно.
func Compile(q Query) (string, []any, error) {
	var (
		where []string
		args  []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, f := range q.Filters {
		switch f := f.(type) {
		case NameContains:
			text := strings.TrimSpace(f.Text)
			if text == "" {
				continue
			}
			where = append(where, "name ILIKE "+bind("%"+escapeLike(text)+"%")+` ESCAPE '\'`)
		case PriceRange:
			if f.Min < 0 || f.Max < 0 {
				return "", nil, apperror.Validation("price range [%d, %d] is negative", f.Min, f.Max)
			}
			if f.Min > f.Max {
				return "", nil, apperror.Validation("price range min %d exceeds max %d", f.Min, f.Max)
			}
			where = append(where, "price BETWEEN "+bind(f.Min)+" AND "+bind(f.Max))
		case InStock:
			where = append(where, "stock > 0")
		case InCategory:
			if f.CategoryID == "" {
				return "", nil, apperror.Validation("category id is required")
			}
			where = append(where, "category_id = "+bind(f.CategoryID))
		default:
			return "", nil, fmt.Errorf("unsupported filter type: %T", f)
		}
	}

	order, err := orderBy(q.Sort)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(ProductColumns)
	sb.WriteString(" FROM products")
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(order)

	return sb.String(), args, nil
}

func orderBy(k SortKey) (string, error) {
	switch k.orDefault() {
	case SortNewest:
		return "created_at DESC, id ASC", nil
	case SortPriceAsc:
		return "price ASC, id ASC", nil
	case SortPriceDesc:
		return "price DESC, id ASC", nil
	case SortNameAsc:
		return "lower(name) ASC, id ASC", nil
	case SortNameDesc:
		return "lower(name) DESC, id ASC", nil
	default:
		return "", apperror.Validation("unknown sort key %q", k)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
