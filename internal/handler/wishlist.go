package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GetWishlist возвращает избранное пользователя, загружая его при первом обращении.
// Для гостя возвращается пустой список.
func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	saved := workspaceFrom(r.Context()).Wishlist

	if !saved.Loaded() {
		if err := saved.Load(r.Context()); err != nil {
			h.writeError(w, "load saved items", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, newProductsResponse(saved.Items(), saved))
}

// AddToWishlist сохраняет товар в избранное.
func (h *Handler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	p, err := h.products.GetProduct(r.Context(), productID)
	if err != nil {
		h.writeError(w, "add saved item", err, zap.String("productID", productID))
		return
	}

	if err := workspaceFrom(r.Context()).Wishlist.Add(r.Context(), p); err != nil {
		h.writeError(w, "add saved item", err, zap.String("productID", productID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveFromWishlist удаляет товар из избранного.
func (h *Handler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	if err := workspaceFrom(r.Context()).Wishlist.Remove(r.Context(), productID); err != nil {
		h.writeError(w, "remove saved item", err, zap.String("productID", productID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
