package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"pest-alert-system/pkg/middleware"
	"pest-alert-system/pkg/response"
	"pest-alert-system/services/api/models"
	"pest-alert-system/services/api/utils"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func isValidPassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters"
	}
	if len(password) > 100 {
		return false, "Password too long"
	}
	return true, ""
}

// PendingCounter reports how many submissions await moderation; the
// lifecycle manager satisfies this.
type PendingCounter interface {
	PendingCount(ctx context.Context) (int64, error)
}

type UserHandler struct {
	db      *gorm.DB
	reports PendingCounter
}

func NewUserHandler(db *gorm.DB, reports PendingCounter) *UserHandler {
	return &UserHandler{db: db, reports: reports}
}

// authResponse is the registration/login payload: the user identity plus a
// fresh token.
type authResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

// Register handles POST /api/users.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}

	if input.Name == "" || input.Email == "" || input.Password == "" {
		response.Error(w, http.StatusBadRequest, "Name, Email, and Password are required", "")
		return
	}
	if !isValidEmail(input.Email) {
		response.Error(w, http.StatusBadRequest, "Invalid email format", "")
		return
	}
	if valid, msg := isValidPassword(input.Password); !valid {
		response.Error(w, http.StatusBadRequest, msg, "")
		return
	}

	role := input.Role
	if role == "" {
		role = middleware.RoleFarmer
	}
	if role != middleware.RoleFarmer && role != middleware.RoleAdmin {
		response.Error(w, http.StatusBadRequest, "Role must be farmer or admin", "")
		return
	}

	var existing models.User
	if result := h.db.Where("email = ?", input.Email).First(&existing); result.Error == nil {
		response.Error(w, http.StatusConflict, "Email already registered", "")
		return
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		middleware.LogError(middleware.GetTraceID(r), "Failed to hash password", err)
		response.Error(w, http.StatusInternalServerError, "Failed to process registration", "")
		return
	}

	user := models.User{
		Email:    input.Email,
		Password: hashedPassword,
		Name:     strings.TrimSpace(input.Name),
		Role:     role,
	}
	if err := h.db.Create(&user).Error; err != nil {
		middleware.LogError(middleware.GetTraceID(r), "Failed to save user", err)
		response.Error(w, http.StatusInternalServerError, "Failed to save user", "")
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, user.Name, user.Role)
	if err != nil {
		middleware.LogError(middleware.GetTraceID(r), "Failed to issue token", err)
		response.Error(w, http.StatusInternalServerError, "Failed to issue token", "")
		return
	}

	response.Success(w, http.StatusCreated, "User registered successfully", authResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		Token: token,
	})
}

// Login handles POST /api/users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}

	var user models.User
	err := h.db.Where("email = ?", input.Email).First(&user).Error
	if err != nil || !utils.CheckPasswordHash(input.Password, user.Password) {
		response.Error(w, http.StatusUnauthorized, "Invalid email or password", "")
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, user.Name, user.Role)
	if err != nil {
		middleware.LogError(middleware.GetTraceID(r), "Failed to issue token", err)
		response.Error(w, http.StatusInternalServerError, "Failed to issue token", "")
		return
	}

	response.Success(w, http.StatusOK, "Login successful", authResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		Token: token,
	})
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", claims.UserID).Error; err != nil {
		response.Error(w, http.StatusNotFound, "User not found", "")
		return
	}

	response.Success(w, http.StatusOK, "User fetched successfully", user)
}

// List handles GET /api/users (admin).
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := h.db.Find(&users).Error; err != nil {
		middleware.LogError(middleware.GetTraceID(r), "Failed to fetch users", err)
		response.Error(w, http.StatusInternalServerError, "Failed to fetch users", "")
		return
	}

	response.Success(w, http.StatusOK, "Users fetched successfully", users)
}

// Delete handles DELETE /api/users/{id} (admin).
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var user models.User
	if err := h.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(w, http.StatusNotFound, "User not found", "")
			return
		}
		middleware.LogError(middleware.GetTraceID(r), "Failed to fetch user", err)
		response.Error(w, http.StatusInternalServerError, "Failed to delete user", "")
		return
	}

	if err := h.db.Delete(&user).Error; err != nil {
		middleware.LogError(middleware.GetTraceID(r), "Failed to delete user", err)
		response.Error(w, http.StatusInternalServerError, "Failed to delete user", "")
		return
	}

	response.Success(w, http.StatusOK, "User removed", nil)
}

// Stats handles GET /api/users/stats (admin): farmer headcount plus pending
// report backlog for the dashboard.
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var farmers int64
	if err := h.db.Model(&models.User{}).Where("role = ?", middleware.RoleFarmer).Count(&farmers).Error; err != nil {
		middleware.LogError(middleware.GetTraceID(r), "Failed to count farmers", err)
		response.Error(w, http.StatusInternalServerError, "Error fetching stats", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pending, err := h.reports.PendingCount(ctx)
	if err != nil {
		middleware.LogError(middleware.GetTraceID(r), "Failed to count pending reports", err)
		response.Error(w, http.StatusInternalServerError, "Error fetching stats", "")
		return
	}

	response.Success(w, http.StatusOK, "Stats fetched successfully", map[string]int64{
		"farmers":        farmers,
		"pendingReports": pending,
	})
}
