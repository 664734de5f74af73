package handler

import (
	"net/http"

	"github.com/google/uuid"
)

type createReviewRequest struct {
	BookID  uuid.UUID `json:"bookId"`
	Rating  int       `json:"rating"`
	Comment *string   `json:"comment"`
}

// CreateReview добавляет отзыв текущего пользователя на купленную книгу.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req createReviewRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	rv, err := h.service.CreateReview(r.Context(), user.ID, req.BookID, req.Rating, req.Comment)
	if err != nil {
		h.respondError(w, err, "create review")
		return
	}
	h.writeData(w, http.StatusCreated, "review created successfully", newReviewResponse(rv))
}

// ListReviews возвращает все отзывы магазина.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListReviews(r.Context())
	if err != nil {
		h.respondError(w, err, "list reviews")
		return
	}
	h.writeData(w, http.StatusOK, "reviews retrieved successfully", newReviewListResponse(reviews))
}

type updateReviewRequest struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment"`
}

// UpdateReview меняет оценку и текст отзыва.
func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "reviewID")
	if !ok {
		return
	}

	var req updateReviewRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	rv, err := h.service.UpdateReview(r.Context(), user.ID, user.Role, id, req.Rating, req.Comment)
	if err != nil {
		h.respondError(w, err, "update review")
		return
	}
	h.writeData(w, http.StatusOK, "review updated successfully", newReviewResponse(rv))
}

// DeleteReview удаляет отзыв.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "reviewID")
	if !ok {
		return
	}

	if err := h.service.DeleteReview(r.Context(), user.ID, user.Role, id); err != nil {
		h.respondError(w, err, "delete review")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
