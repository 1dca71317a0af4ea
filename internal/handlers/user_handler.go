package handlers

import (
	"github.com/gin-gonic/gin"

	apperrors "relaypanel/internal/errors"
	"relaypanel/internal/services"
)

// UserHandler handles user management requests.
type UserHandler struct {
	userService services.UserServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUserRequest represents the user creation payload.
type CreateUserRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=32"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"max=64"`
	Role        int    `json:"role" binding:"omitempty,oneof=1 10 100"`
}

// Create registers a new user
// @Summary     Create a user
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateUserRequest true "User details"
// @Success     200 {object} SuccessResponse{data=UserResponse} "Created user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /user/ [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if req.Role == 0 {
		req.Role = 1
	}

	user, err := h.userService.CreateUser(req.Username, req.Password, req.DisplayName, req.Role)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, toUserResponse(user))
}

// Get returns one user
// @Summary     Get a user
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} SuccessResponse{data=UserResponse} "User"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /user/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, toUserResponse(user))
}

// UpdateUserRequest represents the user update payload. Only supplied
// fields are applied.
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=64"`
	Role        *int    `json:"role" binding:"omitempty,oneof=1 10 100"`
	Status      *int    `json:"status" binding:"omitempty,oneof=1 2"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Group       *string `json:"group" binding:"omitempty,max=64"`
	Quota       *int64  `json:"quota" binding:"omitempty,gte=0"`
}

// Update modifies a user
// @Summary     Update a user
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Param       request body UpdateUserRequest true "Fields to update"
// @Success     200 {object} SuccessResponse{data=UserResponse} "Updated user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /user/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	userID, username, ip, err := actor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	updates := make(map[string]any)
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Group != nil {
		updates["group"] = *req.Group
	}
	if req.Quota != nil {
		updates["quota"] = *req.Quota
	}

	user, err := h.userService.UpdateUser(userID, username, ip, c.Param("id"), updates)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, toUserResponse(user))
}
