package handler

import (
	"net/http"
)

type catalogEntryRequest struct {
	Name  string  `json:"name"`
	Email *string `json:"email"`
}

// CreateAuthor добавляет автора.
func (h *Handler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	var req catalogEntryRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	a, err := h.service.CreateAuthor(r.Context(), req.Name, req.Email)
	if err != nil {
		h.respondError(w, err, "create author")
		return
	}
	h.writeData(w, http.StatusCreated, "author created successfully", authorResponse{ID: a.ID, Name: a.Name, Email: a.Email})
}

// GetAuthor возвращает автора по идентификатору.
func (h *Handler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "authorID")
	if !ok {
		return
	}

	a, err := h.service.GetAuthor(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get author")
		return
	}
	h.writeData(w, http.StatusOK, "author retrieved successfully", authorResponse{ID: a.ID, Name: a.Name, Email: a.Email})
}

// ListAuthors возвращает всех авторов.
func (h *Handler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.service.ListAuthors(r.Context())
	if err != nil {
		h.respondError(w, err, "list authors")
		return
	}

	resp := make([]authorResponse, 0, len(authors))
	for _, a := range authors {
		resp = append(resp, authorResponse{ID: a.ID, Name: a.Name, Email: a.Email})
	}
	h.writeData(w, http.StatusOK, "authors retrieved successfully", resp)
}

// UpdateAuthor обновляет данные автора.
func (h *Handler) UpdateAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "authorID")
	if !ok {
		return
	}

	var req catalogEntryRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	a, err := h.service.UpdateAuthor(r.Context(), id, req.Name, req.Email)
	if err != nil {
		h.respondError(w, err, "update author")
		return
	}
	h.writeData(w, http.StatusOK, "author updated successfully", authorResponse{ID: a.ID, Name: a.Name, Email: a.Email})
}

// DeleteAuthor удаляет автора.
func (h *Handler) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "authorID")
	if !ok {
		return
	}

	if err := h.service.DeleteAuthor(r.Context(), id); err != nil {
		h.respondError(w, err, "delete author")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAuthorBooks возвращает книги автора.
func (h *Handler) GetAuthorBooks(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "authorID")
	if !ok {
		return
	}

	books, err := h.service.GetBooksByAuthor(r.Context(), id)
	h.writeBookList(w, books, err, "get author books")
}

// CreatePublisher добавляет издательство.
func (h *Handler) CreatePublisher(w http.ResponseWriter, r *http.Request) {
	var req catalogEntryRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	p, err := h.service.CreatePublisher(r.Context(), req.Name, req.Email)
	if err != nil {
		h.respondError(w, err, "create publisher")
		return
	}
	h.writeData(w, http.StatusCreated, "publisher created successfully", publisherResponse{ID: p.ID, Name: p.Name, Email: p.Email})
}

// GetPublisher возвращает издательство по идентификатору.
func (h *Handler) GetPublisher(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "publisherID")
	if !ok {
		return
	}

	p, err := h.service.GetPublisher(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get publisher")
		return
	}
	h.writeData(w, http.StatusOK, "publisher retrieved successfully", publisherResponse{ID: p.ID, Name: p.Name, Email: p.Email})
}

// ListPublishers возвращает все издательства.
func (h *Handler) ListPublishers(w http.ResponseWriter, r *http.Request) {
	publishers, err := h.service.ListPublishers(r.Context())
	if err != nil {
		h.respondError(w, err, "list publishers")
		return
	}

	resp := make([]publisherResponse, 0, len(publishers))
	for _, p := range publishers {
		resp = append(resp, publisherResponse{ID: p.ID, Name: p.Name, Email: p.Email})
	}
	h.writeData(w, http.StatusOK, "publishers retrieved successfully", resp)
}

// UpdatePublisher обновляет данные издательства.
func (h *Handler) UpdatePublisher(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "publisherID")
	if !ok {
		return
	}

	var req catalogEntryRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	p, err := h.service.UpdatePublisher(r.Context(), id, req.Name, req.Email)
	if err != nil {
		h.respondError(w, err, "update publisher")
		return
	}
	h.writeData(w, http.StatusOK, "publisher updated successfully", publisherResponse{ID: p.ID, Name: p.Name, Email: p.Email})
}

// DeletePublisher удаляет издательство.
func (h *Handler) DeletePublisher(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "publisherID")
	if !ok {
		return
	}

	if err := h.service.DeletePublisher(r.Context(), id); err != nil {
		h.respondError(w, err, "delete publisher")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPublisherBooks возвращает книги издательства.
func (h *Handler) GetPublisherBooks(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "publisherID")
	if !ok {
		return
	}

	books, err := h.service.GetBooksByPublisher(r.Context(), id)
	h.writeBookList(w, books, err, "get publisher books")
}
