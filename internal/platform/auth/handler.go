package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

// RegisterRoutes: /login は認証不要。/logout と /users は認証必須、
// ユーザ作成は ADMIN のみ。
func RegisterRoutes(r gin.IRoutes, svc *Service, secret []byte, blacklist *TokenBlacklist) {
	h := &Handler{svc: svc}
	r.POST("/login", h.Login)
	r.POST("/logout", RequireAuth(secret, blacklist), h.Logout)
	r.POST("/users", RequireAuth(secret, blacklist), RequireRole(RoleAdmin), h.CreateUser)
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrDisabled):
			c.JSON(http.StatusForbidden, gin.H{"error": "account disabled"})
		case errors.Is(err, ErrAuthFailed):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": res.Token,
		"user": gin.H{
			"user_id":  res.UserID,
			"username": res.Username,
			"role":     res.Role,
		},
	})
}

func (h *Handler) Logout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}

	h.svc.Logout(c.Request.Context(), strings.TrimSpace(parts[1]))
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

type CreateUserRequest struct {
	EmployeeID int64  `json:"employee_id"`
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	Role       string `json:"role" binding:"required"`
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json or missing required fields"})
		return
	}

	switch req.Role {
	case RoleAdmin, RolePropertyAdmin, RoleReadOnly:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	id, err := h.svc.Register(c.Request.Context(), req.EmployeeID, req.Username, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user_id": id})
}
