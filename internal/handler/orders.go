package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-core/internal/model"
)

type orderLineResponse struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	Status          string              `json:"status"`
	Total           float64             `json:"total"`
	ShippingAddress string              `json:"shipping_address,omitempty"`
	CustomerEmail   string              `json:"customer_email,omitempty"`
	CreatedAt       string              `json:"created_at"`
	Items           []orderLineResponse `json:"items,omitempty"`
}

func newOrderResponse(o model.Order) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		Status:          o.Status.String(),
		Total:           model.FormatCents(o.Total),
		ShippingAddress: o.ShippingAddress,
		CustomerEmail:   o.CustomerEmail,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
	}
	for _, l := range o.Lines {
		resp.Items = append(resp.Items, orderLineResponse{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     model.FormatCents(l.UnitPrice),
		})
	}
	return resp
}

func newOrdersResponse(list []model.Order) []orderResponse {
	resp := make([]orderResponse, 0, len(list))
	for _, o := range list {
		resp = append(resp, newOrderResponse(o))
	}
	return resp
}

// Checkout оформляет заказ из текущего выбора клиента.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var shipping model.ShippingDetails
	if err := decodeJSON(r, &shipping); err != nil {
		h.writeError(w, "checkout", err)
		return
	}

	ws := workspaceFrom(r.Context())
	order, err := h.checkout.Submit(r.Context(), ws.Identity, ws.Selection, shipping)
	if err != nil {
		h.writeError(w, "checkout", err, zap.String("clientID", ws.ClientID))
		return
	}

	writeJSON(w, http.StatusCreated, newOrderResponse(order))
}

// GetOrders возвращает историю заказов текущего пользователя.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	session, _ := ws.Identity.Session()

	list, err := ws.Orders.History(r.Context(), session.UserID)
	if err != nil {
		h.writeError(w, "get orders", err, zap.String("userID", session.UserID))
		return
	}

	if len(list) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, newOrdersResponse(list))
}

func orderFilterFrom(r *http.Request) model.OrderFilter {
	v := r.URL.Query()
	return model.OrderFilter{
		Status: model.OrderStatus(v.Get("status")),
		Search: v.Get("q"),
	}
}

// AdminListOrders загружает заказы всех покупателей по фильтру status и строке поиска q.
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := workspaceFrom(r.Context()).Orders.Load(r.Context(), orderFilterFrom(r))
	if err != nil {
		h.writeError(w, "list orders", err)
		return
	}
	writeJSON(w, http.StatusOK, newOrdersResponse(list))
}

type setStatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

// AdminSetOrderStatus переводит заказ в новый статус.
func (h *Handler) AdminSetOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, "set order status", err)
		return
	}

	orderID := chi.URLParam(r, "orderID")
	order, err := workspaceFrom(r.Context()).Orders.SetStatus(r.Context(), orderID, req.Status)
	if err != nil {
		h.writeError(w, "set order status", err, zap.String("orderID", orderID))
		return
	}

	writeJSON(w, http.StatusOK, newOrderResponse(order))
}

// AdminExportOrders выгружает заказы по фильтру в CSV.
func (h *Handler) AdminExportOrders(w http.ResponseWriter, r *http.Request) {
	mgr := workspaceFrom(r.Context()).Orders
	if _, err := mgr.Load(r.Context(), orderFilterFrom(r)); err != nil {
		h.writeError(w, "export orders", err)
		return
	}

	var sb strings.Builder
	if err := mgr.Export(&sb); err != nil {
		h.writeError(w, "export orders", err)
		return
	}

	filename := fmt.Sprintf("orders-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sb.String()))
}
