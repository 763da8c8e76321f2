package catalog

import (
	"cmp"
	"strings"

	"github.com/mmeshcher/storefront-core/internal/apperror"
	"github.com/mmeshcher/storefront-core/internal/model"
)

// SortKey задаёт порядок выдачи каталога.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortNameAsc   SortKey = "name_asc"
	SortNameDesc  SortKey = "name_desc"
)

// ParseSortKey разбирает ключ сортировки. Пустая строка означает newest.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(s).orDefault()
	switch k {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc:
		return k, nil
	default:
		return "", apperror.Validation("unknown sort key %q", s)
	}
}

func (k SortKey) orDefault() SortKey {
	if k == "" {
		return SortNewest
	}
	return k
}

// Compare упорядочивает товары так же, как ORDER BY из Compile.
func (k SortKey) Compare(a, b model.Product) int {
	var c int
	switch k.orDefault() {
	case SortPriceAsc:
		c = cmp.Compare(a.Price, b.Price)
	case SortPriceDesc:
		c = cmp.Compare(b.Price, a.Price)
	case SortNameAsc:
		c = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case SortNameDesc:
		c = strings.Compare(strings.ToLower(b.Name), strings.ToLower(a.Name))
	default:
		c = b.CreatedAt.Compare(a.CreatedAt)
	}
	if c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
