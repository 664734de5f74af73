package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mmeshcher/bookstore-system/internal/model"
	"github.com/mmeshcher/bookstore-system/internal/repository"
	"github.com/mmeshcher/bookstore-system/internal/service"
)

type bookRequest struct {
	Title                string      `json:"title"`
	ISBN                 string      `json:"isbn"`
	Description          string      `json:"description"`
	PublicationDate      time.Time   `json:"publicationDate"`
	PriceCents           int64       `json:"priceCents"`
	StockQuantity        int         `json:"stockQuantity"`
	Language             string      `json:"language"`
	Format               string      `json:"format"`
	Genre                string      `json:"genre"`
	IsAvailableInLibrary bool        `json:"isAvailableInLibrary"`
	AuthorIDs            []uuid.UUID `json:"authorIds"`
	PublisherIDs         []uuid.UUID `json:"publisherIds"`
}

func (req bookRequest) toInput() service.BookInput {
	return service.BookInput{
		Title:                req.Title,
		ISBN:                 req.ISBN,
		Description:          req.Description,
		PublicationDate:      req.PublicationDate,
		PriceCents:           req.PriceCents,
		StockQuantity:        req.StockQuantity,
		Language:             model.Language(req.Language),
		Format:               model.BookFormat(req.Format),
		Genre:                model.Genre(req.Genre),
		IsAvailableInLibrary: req.IsAvailableInLibrary,
		AuthorIDs:            req.AuthorIDs,
		PublisherIDs:         req.PublisherIDs,
	}
}

// CreateBook добавляет книгу в каталог.
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	b, err := h.service.CreateBook(r.Context(), req.toInput())
	if err != nil {
		h.respondError(w, err, "create book")
		return
	}
	h.writeData(w, http.StatusCreated, "book created successfully", newBookResponse(b))
}

// UpdateBook обновляет данные книги.
func (h *Handler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "bookID")
	if !ok {
		return
	}

	var req bookRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	b, err := h.service.UpdateBook(r.Context(), id, req.toInput())
	if err != nil {
		h.respondError(w, err, "update book")
		return
	}
	h.writeData(w, http.StatusOK, "book updated successfully", newBookResponse(b))
}

// DeleteBook удаляет книгу из каталога.
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "bookID")
	if !ok {
		return
	}

	if err := h.service.DeleteBook(r.Context(), id); err != nil {
		h.respondError(w, err, "delete book")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBook возвращает книгу по идентификатору.
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "bookID")
	if !ok {
		return
	}

	b, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get book")
		return
	}
	h.writeData(w, http.StatusOK, "book retrieved successfully", newBookResponse(b))
}

// GetBookBySlug возвращает книгу по слагу.
func (h *Handler) GetBookBySlug(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetBookBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.respondError(w, err, "get book by slug")
		return
	}
	h.writeData(w, http.StatusOK, "book retrieved successfully", newBookResponse(b))
}

// GetBookByISBN возвращает книгу по ISBN.
func (h *Handler) GetBookByISBN(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetBookByISBN(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		h.respondError(w, err, "get book by isbn")
		return
	}
	h.writeData(w, http.StatusOK, "book retrieved successfully", newBookResponse(b))
}

func parseBookFilter(r *http.Request) repository.BookFilter {
	q := r.URL.Query()

	f := repository.BookFilter{
		SearchTerm:     q.Get("search"),
		SortBy:         q.Get("sortBy"),
		SortDescending: q.Get("sortOrder") == "desc",
	}

	for _, raw := range q["authorId"] {
		if id, err := uuid.Parse(raw); err == nil {
			f.AuthorIDs = append(f.AuthorIDs, id)
		}
	}
	for _, raw := range q["publisherId"] {
		if id, err := uuid.Parse(raw); err == nil {
			f.PublisherIDs = append(f.PublisherIDs, id)
		}
	}
	for _, raw := range q["genre"] {
		f.Genres = append(f.Genres, model.Genre(raw))
	}
	for _, raw := range q["language"] {
		f.Languages = append(f.Languages, model.Language(raw))
	}
	for _, raw := range q["format"] {
		f.Formats = append(f.Formats, model.BookFormat(raw))
	}

	if v := q.Get("minPriceCents"); v != "" {
		if cents, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.MinPriceCents = &cents
		}
	}
	if v := q.Get("maxPriceCents"); v != "" {
		if cents, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.MaxPriceCents = &cents
		}
	}
	if v := q.Get("inLibrary"); v != "" {
		inLibrary := v == "true"
		f.IsAvailableInLibrary = &inLibrary
	}
	if v := q.Get("onSale"); v != "" {
		onSale := v == "true"
		f.OnSale = &onSale
	}
	if v := q.Get("minRating"); v != "" {
		if rating, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinRating = &rating
		}
	}
	return f
}

// ListBooks возвращает книги каталога с учётом фильтров из строки запроса.
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListBooks(r.Context(), parseBookFilter(r))
	if err != nil {
		h.respondError(w, err, "list books")
		return
	}
	h.writeData(w, http.StatusOK, "books retrieved successfully", newBookListResponse(books))
}

func (h *Handler) writeBookList(w http.ResponseWriter, books []model.Book, err error, msg string) {
	if err != nil {
		h.respondError(w, err, msg)
		return
	}
	h.writeData(w, http.StatusOK, "books retrieved successfully", newBookListResponse(books))
}

// GetBestSellers возвращает самые продаваемые книги.
func (h *Handler) GetBestSellers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	books, err := h.service.GetBestSellers(r.Context(), limit)
	h.writeBookList(w, books, err, "get best sellers")
}

// GetNewReleases возвращает недавно изданные книги.
func (h *Handler) GetNewReleases(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.GetNewReleases(r.Context())
	h.writeBookList(w, books, err, "get new releases")
}

// GetNewArrivals возвращает недавно добавленные книги.
func (h *Handler) GetNewArrivals(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.GetNewArrivals(r.Context())
	h.writeBookList(w, books, err, "get new arrivals")
}

// GetComingSoon возвращает книги с будущей датой издания.
func (h *Handler) GetComingSoon(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.GetComingSoon(r.Context())
	h.writeBookList(w, books, err, "get coming soon")
}

// GetDeals возвращает книги с действующей скидкой.
func (h *Handler) GetDeals(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.GetDeals(r.Context())
	h.writeBookList(w, books, err, "get deals")
}

type updateStockRequest struct {
	StockQuantity int `json:"stockQuantity"`
}

// UpdateStock выставляет остаток книги на складе.
func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "bookID")
	if !ok {
		return
	}

	var req updateStockRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.service.UpdateStock(r.Context(), id, req.StockQuantity); err != nil {
		h.respondError(w, err, "update stock")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setDiscountRequest struct {
	Percentage *float64   `json:"percentage"`
	StartDate  *time.Time `json:"startDate"`
	EndDate    *time.Time `json:"endDate"`
}

// SetDiscount назначает или снимает скидку книги.
func (h *Handler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "bookID")
	if !ok {
		return
	}

	var req setDiscountRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.service.SetDiscount(r.Context(), id, req.Percentage, req.StartDate, req.EndDate); err != nil {
		h.respondError(w, err, "set discount")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveDiscount снимает скидку с книги.
func (h *Handler) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "bookID")
	if !ok {
		return
	}

	if err := h.service.SetDiscount(r.Context(), id, nil, nil, nil); err != nil {
		h.respondError(w, err, "remove discount")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBookAvailability сообщает, есть ли книга в наличии, и текущий остаток.
func (h *Handler) GetBookAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "bookID")
	if !ok {
		return
	}

	b, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get book availability")
		return
	}
	h.writeData(w, http.StatusOK, "availability retrieved successfully", map[string]any{
		"available":     b.StockQuantity > 0,
		"stockQuantity": b.StockQuantity,
	})
}

const maxImageSize = 10 << 20

// UploadBookImage принимает файл обложки и загружает его в хранилище.
func (h *Handler) UploadBookImage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "bookID")
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "image file is required"})
		return
	}
	defer file.Close()

	url, err := h.service.UploadBookImage(r.Context(), id, header.Filename, file)
	if err != nil {
		h.respondError(w, err, "upload book image")
		return
	}
	h.writeData(w, http.StatusOK, "image uploaded successfully", map[string]string{"imageUrl": url})
}

// GetBookRating возвращает среднюю оценку книги.
func (h *Handler) GetBookRating(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "bookID")
	if !ok {
		return
	}

	rating, err := h.service.GetAverageRating(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get book rating")
		return
	}
	h.writeData(w, http.StatusOK, "average rating retrieved successfully", map[string]float64{"averageRating": rating})
}

// GetBookReviews возвращает отзывы на книгу.
func (h *Handler) GetBookReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "bookID")
	if !ok {
		return
	}

	reviews, err := h.service.GetReviewsByBook(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get book reviews")
		return
	}
	h.writeData(w, http.StatusOK, "reviews retrieved successfully", newReviewListResponse(reviews))
}
