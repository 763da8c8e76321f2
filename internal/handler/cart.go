package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-core/internal/model"
	"github.com/mmeshcher/storefront-core/internal/selection"
)

type cartLineResponse struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"image_url"`
	Subtotal  float64 `json:"subtotal"`
}

type cartResponse struct {
	Items []cartLineResponse `json:"items"`
	Total float64            `json:"total"`
}

func newCartResponse(sel *selection.Store) cartResponse {
	lines, total := sel.Snapshot()

	resp := cartResponse{
		Items: make([]cartLineResponse, 0, len(lines)),
		Total: model.FormatCents(total),
	}
	for _, l := range lines {
		resp.Items = append(resp.Items, cartLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     model.FormatCents(l.UnitPrice),
			Quantity:  l.Quantity,
			ImageURL:  l.ImageRef,
			Subtotal:  model.FormatCents(l.Subtotal()),
		})
	}
	return resp
}

// GetCart возвращает текущий выбор клиента.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newCartResponse(workspaceFrom(r.Context()).Selection))
}

type addLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddCartLine добавляет товар в выбор по текущей цене каталога.
func (h *Handler) AddCartLine(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, "add cart line", err)
		return
	}

	p, err := h.products.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		h.writeError(w, "add cart line", err, zap.String("productID", req.ProductID))
		return
	}

	sel := workspaceFrom(r.Context()).Selection
	if err := sel.AddLine(p.ID, p.Name, p.Price, p.ImageRef, req.Quantity); err != nil {
		h.writeError(w, "add cart line", err, zap.String("productID", p.ID))
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(sel))
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// SetCartQuantity задаёт количество товара в выборе.
func (h *Handler) SetCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, "set cart quantity", err)
		return
	}

	sel := workspaceFrom(r.Context()).Selection
	if err := sel.SetQuantity(chi.URLParam(r, "productID"), req.Quantity); err != nil {
		h.writeError(w, "set cart quantity", err)
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(sel))
}

// RemoveCartLine удаляет товар из выбора.
func (h *Handler) RemoveCartLine(w http.ResponseWriter, r *http.Request) {
	sel := workspaceFrom(r.Context()).Selection
	sel.RemoveLine(chi.URLParam(r, "productID"))
	writeJSON(w, http.StatusOK, newCartResponse(sel))
}

// ClearCart очищает выбор.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	workspaceFrom(r.Context()).Selection.Clear()
	w.WriteHeader(http.StatusNoContent)
}
