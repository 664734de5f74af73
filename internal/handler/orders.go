package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mmeshcher/bookstore-system/internal/model"
	"github.com/mmeshcher/bookstore-system/internal/repository"
)

type orderLineRequest struct {
	BookID   uuid.UUID `json:"bookId"`
	Quantity int       `json:"quantity"`
}

type placeOrderRequest struct {
	Items []orderLineRequest `json:"items"`
}

// PlaceOrder оформляет заказ по явному списку позиций.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req placeOrderRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	lines := make([]repository.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, repository.OrderLine{BookID: it.BookID, Quantity: it.Quantity})
	}

	o, err := h.service.PlaceOrder(r.Context(), user.ID, lines)
	if err != nil {
		h.respondError(w, err, "place order")
		return
	}
	h.writeData(w, http.StatusCreated, "order placed successfully", newOrderResponse(o))
}

// PlaceOrderFromCart оформляет заказ из корзины текущего пользователя.
func (h *Handler) PlaceOrderFromCart(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	o, err := h.service.PlaceOrderFromCart(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, err, "place order from cart")
		return
	}
	h.writeData(w, http.StatusCreated, "order placed successfully", newOrderResponse(o))
}

// GetOrder возвращает заказ. Покупатель видит только свои заказы.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "orderID")
	if !ok {
		return
	}

	o, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get order")
		return
	}

	if user.Role == model.RoleMember && o.UserID != user.ID {
		h.writeJSON(w, http.StatusForbidden, errorResponse{Message: http.StatusText(http.StatusForbidden)})
		return
	}
	h.writeData(w, http.StatusOK, "order retrieved successfully", newOrderResponse(o))
}

// GetMyOrders возвращает заказы текущего пользователя.
func (h *Handler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	orders, err := h.service.GetOrdersByUser(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, err, "get user orders")
		return
	}
	h.writeData(w, http.StatusOK, "orders retrieved successfully", newOrderListResponse(orders))
}

// ListOrders возвращает все заказы магазина.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.respondError(w, err, "list orders")
		return
	}
	h.writeData(w, http.StatusOK, "orders retrieved successfully", newOrderListResponse(orders))
}

// GetOrderByClaimCode возвращает заказ по коду выдачи.
func (h *Handler) GetOrderByClaimCode(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrderByClaimCode(r.Context(), chi.URLParam(r, "claimCode"))
	if err != nil {
		h.respondError(w, err, "get order by claim code")
		return
	}
	h.writeData(w, http.StatusOK, "order retrieved successfully", newOrderResponse(o))
}

// MarkOrderReady переводит заказ в статус готовности к выдаче.
func (h *Handler) MarkOrderReady(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "orderID")
	if !ok {
		return
	}

	o, err := h.service.MarkOrderReady(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "mark order ready")
		return
	}
	h.writeData(w, http.StatusOK, "order marked ready for pickup", newOrderResponse(o))
}

// CompleteOrder подтверждает выдачу заказа по коду выдачи. Членский номер
// владельца передаётся параметром запроса membershipId.
func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	membershipID := r.URL.Query().Get("membershipId")
	if membershipID == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "membership id is required"})
		return
	}

	o, err := h.service.CompleteOrder(r.Context(), chi.URLParam(r, "claimCode"), membershipID)
	if err != nil {
		h.respondError(w, err, "complete order")
		return
	}
	h.writeData(w, http.StatusOK, "order completed successfully", newOrderResponse(o))
}

// CancelOrder отменяет заказ.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "orderID")
	if !ok {
		return
	}

	o, err := h.service.CancelOrder(r.Context(), user.ID, user.Role, id)
	if err != nil {
		h.respondError(w, err, "cancel order")
		return
	}
	h.writeData(w, http.StatusOK, "order cancelled successfully", newOrderResponse(o))
}
