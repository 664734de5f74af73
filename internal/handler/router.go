package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/bookstore-system/internal/middleware"
	"github.com/mmeshcher/bookstore-system/internal/model"
)

// SetupRouter настраивает HTTP-маршруты и middleware книжного магазина.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	auth := h.authMiddleware.Middleware
	adminOnly := custommiddleware.RequireRoles(model.RoleAdmin)
	staffOrAdmin := custommiddleware.RequireRoles(model.RoleAdmin, model.RoleStaff)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/password-reset", h.RequestPasswordReset)
		r.Post("/password-reset/confirm", h.ConfirmPasswordReset)
	})

	r.Route("/api/books", func(r chi.Router) {
		r.Get("/", h.ListBooks)
		r.Get("/best-sellers", h.GetBestSellers)
		r.Get("/new-releases", h.GetNewReleases)
		r.Get("/new-arrivals", h.GetNewArrivals)
		r.Get("/coming-soon", h.GetComingSoon)
		r.Get("/deals", h.GetDeals)
		r.Get("/slug/{slug}", h.GetBookBySlug)
		r.Get("/isbn/{isbn}", h.GetBookByISBN)
		r.Get("/{bookID}", h.GetBook)
		r.Get("/{bookID}/reviews", h.GetBookReviews)
		r.Get("/{bookID}/rating", h.GetBookRating)
		r.Get("/{bookID}/availability", h.GetBookAvailability)

		r.Group(func(r chi.Router) {
			r.Use(auth, adminOnly)

			r.Post("/", h.CreateBook)
			r.Put("/{bookID}", h.UpdateBook)
			r.Delete("/{bookID}", h.DeleteBook)
			r.Patch("/{bookID}/discount", h.SetDiscount)
			r.Delete("/{bookID}/discount", h.RemoveDiscount)
			r.Post("/{bookID}/image", h.UploadBookImage)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth, staffOrAdmin)

			r.Patch("/{bookID}/stock", h.UpdateStock)
		})
	})

	r.Route("/api/authors", func(r chi.Router) {
		r.Get("/", h.ListAuthors)
		r.Get("/{authorID}", h.GetAuthor)
		r.Get("/{authorID}/books", h.GetAuthorBooks)

		r.Group(func(r chi.Router) {
			r.Use(auth, adminOnly)

			r.Post("/", h.CreateAuthor)
			r.Put("/{authorID}", h.UpdateAuthor)
			r.Delete("/{authorID}", h.DeleteAuthor)
		})
	})

	r.Route("/api/publishers", func(r chi.Router) {
		r.Get("/", h.ListPublishers)
		r.Get("/{publisherID}", h.GetPublisher)
		r.Get("/{publisherID}/books", h.GetPublisherBooks)

		r.Group(func(r chi.Router) {
			r.Use(auth, adminOnly)

			r.Post("/", h.CreatePublisher)
			r.Put("/{publisherID}", h.UpdatePublisher)
			r.Delete("/{publisherID}", h.DeletePublisher)
		})
	})

	r.Route("/api/announcements", func(r chi.Router) {
		r.Get("/", h.ListActiveAnnouncements)

		r.Group(func(r chi.Router) {
			r.Use(auth, adminOnly)

			r.Get("/all", h.ListAnnouncements)
			r.Get("/{announcementID}", h.GetAnnouncement)
			r.Post("/", h.CreateAnnouncement)
			r.Put("/{announcementID}", h.UpdateAnnouncement)
			r.Delete("/{announcementID}", h.DeleteAnnouncement)
			r.Patch("/{announcementID}/toggle", h.ToggleAnnouncement)
		})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(auth)

		r.Get("/me", h.GetProfile)
		r.Put("/me", h.UpdateProfile)
		r.Put("/me/password", h.ChangePassword)
		r.Get("/me/orders", h.GetMyOrders)
		r.Get("/me/reviews", h.GetMyReviews)
		r.Get("/me/bookmarks", h.GetBookmarks)
		r.Get("/me/bookmarks/{bookID}", h.IsBookmarked)
		r.Post("/me/bookmarks/{bookID}", h.ToggleBookmark)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)

			r.Get("/", h.ListUsers)
			r.Get("/email/{email}", h.GetUserByEmail)
			r.Get("/{userID}", h.GetUser)
			r.Patch("/{userID}/status", h.SetUserActive)
			r.Patch("/{userID}/role", h.SetUserRole)
			r.Delete("/{userID}", h.DeleteUser)
		})
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(auth)

		r.Get("/", h.GetCart)
		r.Get("/summary", h.GetCartSummary)
		r.Post("/items", h.AddCartItem)
		r.Put("/items/{itemID}", h.UpdateCartItem)
		r.Delete("/items/{itemID}", h.RemoveCartItem)
		r.Delete("/", h.ClearCart)
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(auth)

		r.Post("/", h.PlaceOrder)
		r.Post("/from-cart", h.PlaceOrderFromCart)
		r.Get("/{orderID}", h.GetOrder)
		r.Post("/{orderID}/cancel", h.CancelOrder)

		r.Group(func(r chi.Router) {
			r.Use(staffOrAdmin)

			r.Get("/", h.ListOrders)
			r.Get("/claim/{claimCode}", h.GetOrderByClaimCode)
			r.Post("/{orderID}/ready", h.MarkOrderReady)
			r.Post("/claim/{claimCode}/complete", h.CompleteOrder)
		})
	})

	r.Route("/api/reviews", func(r chi.Router) {
		r.Use(auth)

		r.Post("/", h.CreateReview)
		r.Put("/{reviewID}", h.UpdateReview)
		r.Delete("/{reviewID}", h.DeleteReview)

		r.With(staffOrAdmin).Get("/", h.ListReviews)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
