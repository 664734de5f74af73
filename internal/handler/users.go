package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// Register регистрирует нового покупателя и выдаёт ему токен.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	u, err := h.service.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		h.respondError(w, err, "register user")
		return
	}

	token, err := h.authMiddleware.IssueToken(u)
	if err != nil {
		h.respondError(w, err, "issue token")
		return
	}

	h.logger.Info("user registered", zap.String("user_id", u.ID.String()))
	h.writeData(w, http.StatusCreated, "user registered successfully", authResponse{Token: token, User: newUserResponse(u)})
}

// Login аутентифицирует пользователя и выдаёт токен.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	u, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, err, "login user")
		return
	}

	token, err := h.authMiddleware.IssueToken(u)
	if err != nil {
		h.respondError(w, err, "issue token")
		return
	}

	h.writeData(w, http.StatusOK, "login successful", authResponse{Token: token, User: newUserResponse(u)})
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset отправляет код восстановления пароля на почту.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.respondError(w, err, "request password reset")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type passwordResetConfirmRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// ConfirmPasswordReset устанавливает новый пароль по коду восстановления.
func (h *Handler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirmRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		h.respondError(w, err, "reset password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile возвращает профиль текущего пользователя.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	u, err := h.service.GetUser(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, err, "get profile")
		return
	}
	h.writeData(w, http.StatusOK, "user retrieved successfully", newUserResponse(u))
}

type updateProfileRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// UpdateProfile меняет email и имя текущего пользователя.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), user.ID, req.Email, req.Username)
	if err != nil {
		h.respondError(w, err, "update profile")
		return
	}
	h.writeData(w, http.StatusOK, "user updated successfully", newUserResponse(u))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword меняет пароль текущего пользователя.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondError(w, err, "change password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUsers возвращает всех пользователей.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.respondError(w, err, "list users")
		return
	}

	resp := make([]userResponse, 0, len(users))
	for i := range users {
		resp = append(resp, newUserResponse(&users[i]))
	}
	h.writeData(w, http.StatusOK, "users retrieved successfully", resp)
}

// GetUser возвращает пользователя по идентификатору.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get user")
		return
	}
	h.writeData(w, http.StatusOK, "user retrieved successfully", newUserResponse(u))
}

// GetUserByEmail возвращает пользователя по адресу почты.
func (h *Handler) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetUserByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		h.respondError(w, err, "get user by email")
		return
	}
	h.writeData(w, http.StatusOK, "user retrieved successfully", newUserResponse(u))
}

type setActiveRequest struct {
	IsActive bool `json:"isActive"`
}

// SetUserActive включает или отключает учётную запись.
func (h *Handler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	var req setActiveRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	changed, err := h.service.SetUserActive(r.Context(), id, req.IsActive)
	if err != nil {
		h.respondError(w, err, "set user active")
		return
	}
	h.writeData(w, http.StatusOK, "user status updated successfully", map[string]bool{"changed": changed})
}

type setRoleRequest struct {
	Role model.UserRole `json:"role"`
}

// SetUserRole назначает пользователю роль.
func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	var req setRoleRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.service.SetUserRole(r.Context(), id, req.Role); err != nil {
		h.respondError(w, err, "set user role")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser удаляет учётную запись.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.respondError(w, err, "delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleBookmark добавляет книгу в закладки или убирает её.
func (h *Handler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	bookID, ok := h.pathID(w, r, "bookID")
	if !ok {
		return
	}

	bookmarked, err := h.service.ToggleBookmark(r.Context(), user.ID, bookID)
	if err != nil {
		h.respondError(w, err, "toggle bookmark")
		return
	}
	h.writeData(w, http.StatusOK, "bookmark toggled successfully", map[string]bool{"bookmarked": bookmarked})
}

// IsBookmarked сообщает, находится ли книга в закладках текущего пользователя.
func (h *Handler) IsBookmarked(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	bookID, ok := h.pathID(w, r, "bookID")
	if !ok {
		return
	}

	bookmarked, err := h.service.IsBookmarked(r.Context(), user.ID, bookID)
	if err != nil {
		h.respondError(w, err, "check bookmark")
		return
	}
	h.writeData(w, http.StatusOK, "bookmark status retrieved successfully", map[string]bool{"bookmarked": bookmarked})
}

// GetBookmarks возвращает книги в закладках текущего пользователя.
func (h *Handler) GetBookmarks(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	books, err := h.service.GetBookmarks(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, err, "get bookmarks")
		return
	}
	h.writeData(w, http.StatusOK, "bookmarks retrieved successfully", newBookListResponse(books))
}

// GetMyReviews возвращает отзывы текущего пользователя.
func (h *Handler) GetMyReviews(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	reviews, err := h.service.GetReviewsByUser(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, err, "get user reviews")
		return
	}
	h.writeData(w, http.StatusOK, "reviews retrieved successfully", newReviewListResponse(reviews))
}
