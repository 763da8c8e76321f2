package handler

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/storefront-core/internal/apperror"
	"github.com/mmeshcher/storefront-core/internal/catalog"
	"github.com/mmeshcher/storefront-core/internal/model"
	"github.com/mmeshcher/storefront-core/internal/wishlist"
)

type productResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	CategoryID  string  `json:"category_id,omitempty"`
	ImageURL    string  `json:"image_url"`
	CreatedAt   string  `json:"created_at"`
	Saved       bool    `json:"saved"`
}

func newProductsResponse(products []model.Product, saved *wishlist.Store) []productResponse {
	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, productResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       model.FormatCents(p.Price),
			Stock:       p.Stock,
			CategoryID:  p.CategoryID,
			ImageURL:    p.ImageRef,
			CreatedAt:   p.CreatedAt.Format(time.RFC3339),
			Saved:       saved != nil && saved.Contains(p.ID),
		})
	}
	return resp
}

// parseCatalogQuery собирает запрос каталога из параметров q, min, max, in_stock и sort.
// Цены передаются в денежных единицах с двумя знаками.
func parseCatalogQuery(r *http.Request) (catalog.Query, error) {
	v := r.URL.Query()

	sortKey, err := catalog.ParseSortKey(v.Get("sort"))
	if err != nil {
		return catalog.Query{}, err
	}
	q := catalog.Query{Sort: sortKey}

	if text := v.Get("q"); text != "" {
		q.Filters = append(q.Filters, catalog.NameContains{Text: text})
	}

	minRaw, maxRaw := v.Get("min"), v.Get("max")
	if minRaw != "" || maxRaw != "" {
		pr := catalog.PriceRange{Min: 0, Max: math.MaxInt64}
		if minRaw != "" {
			if pr.Min, err = parseCents(minRaw); err != nil {
				return catalog.Query{}, err
			}
		}
		if maxRaw != "" {
			if pr.Max, err = parseCents(maxRaw); err != nil {
				return catalog.Query{}, err
			}
		}
		q.Filters = append(q.Filters, pr)
	}

	if raw := v.Get("in_stock"); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			return catalog.Query{}, apperror.Validation("in_stock must be a boolean, got %q", raw)
		}
		if inStock {
			q.Filters = append(q.Filters, catalog.InStock{})
		}
	}

	return q, nil
}

func parseCents(s string) (int64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, apperror.Validation("price %q is not a number", s)
	}
	// центы должны помещаться в int64
	cents := math.Round(f * 100)
	if cents >= math.MaxInt64 || cents < math.MinInt64 {
		return 0, apperror.Validation("price %q is out of range", s)
	}
	return int64(cents), nil
}

// SearchProducts ищет товары по фильтрам. Параметр category ограничивает поиск категорией по slug.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	h.searchProducts(w, r, r.URL.Query().Get("category"))
}

// CategoryProducts ищет товары внутри категории из пути запроса.
func (h *Handler) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	h.searchProducts(w, r, chi.URLParam(r, "slug"))
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request, slug string) {
	q, err := parseCatalogQuery(r)
	if err != nil {
		h.writeError(w, "search products", err)
		return
	}

	if slug != "" {
		c, err := h.catalog.CategoryBySlug(r.Context(), slug)
		if err != nil {
			h.writeError(w, "search products", err)
			return
		}
		q.Filters = append(q.Filters, catalog.InCategory{CategoryID: c.ID})
	}

	products, err := h.catalog.Search(r.Context(), q)
	if err != nil {
		h.writeError(w, "search products", err)
		return
	}

	var saved *wishlist.Store
	if ws := workspaceFrom(r.Context()); ws != nil {
		saved = ws.Wishlist
	}
	writeJSON(w, http.StatusOK, newProductsResponse(products, saved))
}
