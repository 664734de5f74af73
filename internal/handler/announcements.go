package handler

import (
	"net/http"
	"time"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

type announcementRequest struct {
	Title     string                 `json:"title"`
	Content   string                 `json:"content"`
	StartDate time.Time              `json:"startDate"`
	EndDate   time.Time              `json:"endDate"`
	Type      model.AnnouncementType `json:"type"`
}

// ListActiveAnnouncements возвращает действующие объявления для витрины.
func (h *Handler) ListActiveAnnouncements(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListActiveAnnouncements(r.Context())
	if err != nil {
		h.respondError(w, err, "list active announcements")
		return
	}
	h.writeData(w, http.StatusOK, "announcements retrieved successfully", newAnnouncementListResponse(items))
}

// ListAnnouncements возвращает все объявления.
func (h *Handler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListAnnouncements(r.Context())
	if err != nil {
		h.respondError(w, err, "list announcements")
		return
	}
	h.writeData(w, http.StatusOK, "announcements retrieved successfully", newAnnouncementListResponse(items))
}

// GetAnnouncement возвращает объявление по идентификатору.
func (h *Handler) GetAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "announcementID")
	if !ok {
		return
	}

	a, err := h.service.GetAnnouncement(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get announcement")
		return
	}
	h.writeData(w, http.StatusOK, "announcement retrieved successfully", newAnnouncementResponse(a))
}

// CreateAnnouncement создаёт объявление.
func (h *Handler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req announcementRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	a, err := h.service.CreateAnnouncement(r.Context(), &model.Announcement{
		Title:     req.Title,
		Content:   req.Content,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Type:      req.Type,
	})
	if err != nil {
		h.respondError(w, err, "create announcement")
		return
	}
	h.writeData(w, http.StatusCreated, "announcement created successfully", newAnnouncementResponse(a))
}

// UpdateAnnouncement обновляет объявление.
func (h *Handler) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "announcementID")
	if !ok {
		return
	}

	var req announcementRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	a, err := h.service.UpdateAnnouncement(r.Context(), &model.Announcement{
		ID:        id,
		Title:     req.Title,
		Content:   req.Content,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Type:      req.Type,
	})
	if err != nil {
		h.respondError(w, err, "update announcement")
		return
	}
	h.writeData(w, http.StatusOK, "announcement updated successfully", newAnnouncementResponse(a))
}

// DeleteAnnouncement удаляет объявление.
func (h *Handler) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "announcementID")
	if !ok {
		return
	}

	if err := h.service.DeleteAnnouncement(r.Context(), id); err != nil {
		h.respondError(w, err, "delete announcement")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleAnnouncement переключает видимость объявления.
func (h *Handler) ToggleAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "announcementID")
	if !ok {
		return
	}

	active, err := h.service.ToggleAnnouncement(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "toggle announcement")
		return
	}
	h.writeData(w, http.StatusOK, "announcement toggled successfully", map[string]bool{"isActive": active})
}
