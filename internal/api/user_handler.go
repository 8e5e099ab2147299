package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gramchain/internal/repository"
	"gramchain/pkg/rbac"
)

type UserHandler struct {
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewUserHandler(userRepo *repository.UserRepository, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userRepo: userRepo,
		logger:   logger,
	}
}

// List handles GET /users. Restricted to oversight roles.
func (h *UserHandler) List(c *gin.Context) {
	p, _ := principalFrom(c)
	if p.Role != rbac.RoleGovernment && p.Role != rbac.RoleLocalAuthority {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	users, err := h.userRepo.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// Get handles GET /users/:id. Users see themselves; oversight roles see
// anyone.
func (h *UserHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	p, _ := principalFrom(c)
	if p.UserID != id && p.Role != rbac.RoleGovernment && p.Role != rbac.RoleLocalAuthority {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	u, err := h.userRepo.FindByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": u})
}

// Update handles PATCH /users/:id. Users update only themselves unless
// government.
func (h *UserHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	p, _ := principalFrom(c)
	if p.UserID != id && p.Role != rbac.RoleGovernment {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	var req struct {
		Name         string `json:"name" binding:"required,min=2,max=50"`
		Organization string `json:"organization"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.userRepo.UpdateProfile(c.Request.Context(), id, req.Name, req.Organization); err != nil {
		h.logger.Error("Failed to update user", zap.Int("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "profile updated"})
}
