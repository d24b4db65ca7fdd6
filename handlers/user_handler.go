package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/account-service/middleware"
	"github.com/upb/account-service/models"
	"github.com/upb/account-service/services"
	"github.com/upb/account-service/utils"
	"go.uber.org/zap"
)

// AccountManager is the account directory used by UserHandler
type AccountManager interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, page, pageSize int) (*services.UserPage, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error)
}

// LoginService exchanges credentials for a token
type LoginService interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

// RegisterRequest is the body of POST /register
type RegisterRequest struct {
	FullName    string `json:"fullName" validate:"required,max=200"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,birthdate"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=6,bcryptlen"`
	Role        string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// StatusRequest is the body of PUT /{id}/status
type StatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	User      *models.PublicUser `json:"user"`
}

// UserListResponse is one page of the account directory
type UserListResponse struct {
	Users       []*models.PublicUser `json:"users"`
	TotalUsers  int                  `json:"totalUsers"`
	CurrentPage int                  `json:"currentPage"`
	PageSize    int                  `json:"pageSize"`
	TotalPages  int                  `json:"totalPages"`
}

// UserHandler handles account HTTP requests
type UserHandler struct {
	accounts AccountManager
	sessions LoginService
	logger   *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(accounts AccountManager, sessions LoginService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		sessions: sessions,
		logger:   logger,
	}
}

// HandleRegister handles POST /register
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, "", h.logger)
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = models.NormalizeEmail(req.Email)

	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, "", h.logger)
		return
	}

	// Already checked by the birthdate tag
	dob, err := utils.ParseBirthdate(req.DateOfBirth)
	if err != nil {
		HandleValidationError(w, utils.NewFieldError("dateOfBirth", err.Error()), "", h.logger)
		return
	}

	in := services.RegisterInput{
		FullName:    req.FullName,
		DateOfBirth: dob,
		Email:       req.Email,
		Password:    req.Password,
	}
	if req.Role != "" {
		role, err := models.ParseRole(req.Role)
		if err != nil {
			HandleValidationError(w, utils.NewFieldError("role", "role must be one of: USER ADMIN"), "", h.logger)
			return
		}
		in.Role = &role
	}

	user, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.writeJSON(w, http.StatusCreated, models.NewPublicUser(user))
}

// HandleLogin handles POST /login
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, "", h.logger)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, "Email and password are required.", h.logger)
		return
	}

	result, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.writeJSON(w, http.StatusOK, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC(),
		User:      models.NewPublicUser(result.User),
	})
}

// HandleMe handles GET /me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		_ = utils.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, err := uuid.Parse(identity.UserID)
	if err != nil {
		HandleServiceError(w, services.ErrUserNotFound, h.logger)
		return
	}

	h.writeUser(w, r, id)
}

// HandleGet handles GET /{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		HandleValidationError(w, err, "", h.logger)
		return
	}

	h.writeUser(w, r, id)
}

// HandleList handles GET /
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := utils.ParsePositiveInt(query.Get("page"), "page", services.DefaultPage)
	if err != nil {
		HandleValidationError(w, err, services.ErrInvalidPagination.Message, h.logger)
		return
	}
	pageSize, err := utils.ParsePositiveInt(query.Get("pageSize"), "pageSize", services.DefaultPageSize)
	if err != nil {
		HandleValidationError(w, err, services.ErrInvalidPagination.Message, h.logger)
		return
	}

	result, err := h.accounts.List(r.Context(), page, pageSize)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.writeJSON(w, http.StatusOK, UserListResponse{
		Users:       models.NewPublicUsers(result.Users),
		TotalUsers:  result.TotalUsers,
		CurrentPage: result.CurrentPage,
		PageSize:    result.PageSize,
		TotalPages:  result.TotalPages,
	})
}

// HandleSetStatus handles PUT /{id}/status
func (h *UserHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		HandleValidationError(w, err, "", h.logger)
		return
	}

	var req StatusRequest
	if err := utils.DecodeJSONStrict(r, &req); err != nil {
		HandleValidationError(w, err, statusMessage(err), h.logger)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, "isActive must be a boolean.", h.logger)
		return
	}

	user, err := h.accounts.SetActive(r.Context(), id, *req.IsActive)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if caller := middleware.GetIdentityFromContext(r.Context()); caller != nil {
		h.logger.Info("account status updated",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.String("actor_id", caller.UserID),
			zap.String("user_id", id.String()),
			zap.Bool("is_active", user.IsActive))
	}

	h.writeJSON(w, http.StatusOK, models.NewPublicUser(user))
}

func (h *UserHandler) writeUser(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	user, err := h.accounts.GetByID(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	h.writeJSON(w, http.StatusOK, models.NewPublicUser(user))
}

func (h *UserHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	if err := utils.WriteJSON(w, status, data); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// statusMessage keeps the isActive wording for a mistyped flag
func statusMessage(err error) string {
	if _, ok := utils.GetValidationFields(err)["isActive"]; ok {
		return "isActive must be a boolean."
	}
	return ""
}
