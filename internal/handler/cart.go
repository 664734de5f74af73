package handler

import (
	"net/http"

	"github.com/google/uuid"
)

// GetCart возвращает корзину текущего пользователя.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	cart, err := h.service.GetCart(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, err, "get cart")
		return
	}
	h.writeData(w, http.StatusOK, "cart retrieved successfully", newCartResponse(cart))
}

type cartSummaryResponse struct {
	ItemCount           int   `json:"itemCount"`
	SubTotalCents       int64 `json:"subTotalCents"`
	DiscountAmountCents int64 `json:"discountAmountCents"`
	LoyaltyApplied      bool  `json:"loyaltyApplied"`
	FinalAmountCents    int64 `json:"finalAmountCents"`
}

// GetCartSummary возвращает предварительный итог корзины со скидками.
func (h *Handler) GetCartSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	sum, err := h.service.GetCartSummary(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, err, "get cart summary")
		return
	}
	h.writeData(w, http.StatusOK, "cart summary retrieved successfully", cartSummaryResponse{
		ItemCount:           sum.ItemCount,
		SubTotalCents:       sum.SubTotalCents,
		DiscountAmountCents: sum.DiscountCents,
		LoyaltyApplied:      sum.LoyaltyApplied,
		FinalAmountCents:    sum.FinalAmountCents,
	})
}

type addCartItemRequest struct {
	BookID   uuid.UUID `json:"bookId"`
	Quantity int       `json:"quantity"`
}

// AddCartItem добавляет книгу в корзину.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req addCartItemRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	cart, err := h.service.AddToCart(r.Context(), user.ID, req.BookID, req.Quantity)
	if err != nil {
		h.respondError(w, err, "add cart item")
		return
	}
	h.writeData(w, http.StatusCreated, "item added to cart successfully", newCartResponse(cart))
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateCartItem меняет количество позиции корзины.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}

	var req updateCartItemRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	cart, err := h.service.UpdateCartItem(r.Context(), user.ID, itemID, req.Quantity)
	if err != nil {
		h.respondError(w, err, "update cart item")
		return
	}
	h.writeData(w, http.StatusOK, "cart item updated successfully", newCartResponse(cart))
}

// RemoveCartItem убирает позицию из корзины.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}

	cart, err := h.service.RemoveCartItem(r.Context(), user.ID, itemID)
	if err != nil {
		h.respondError(w, err, "remove cart item")
		return
	}
	h.writeData(w, http.StatusOK, "item removed from cart successfully", newCartResponse(cart))
}

// ClearCart опустошает корзину текущего пользователя.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.ClearCart(r.Context(), user.ID); err != nil {
		h.respondError(w, err, "clear cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
