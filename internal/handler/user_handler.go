// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"github.com/Agk8907/AI-chat-Application/internal/service"
	"github.com/Agk8907/AI-chat-Application/pkg/log"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserHandler 负责处理注册、登录与资料更新相关的 API 请求。
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// credentialsRequest 定义了注册和登录 API 的请求体结构。
type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 处理用户注册请求。
func (h *UserHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing fields"})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateUsername) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
			return
		}
		log.Errorf("Register failed for '%s': %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	log.Infof("User '%s' registered successfully", user.Username)
	c.JSON(http.StatusOK, gin.H{"message": "User registered!"})
}

// Login 处理用户登录请求，成功时返回 token。
func (h *UserHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 缺字段在入口直接拒绝，不再走一次注定失败的凭据校验
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing fields"})
		return
	}

	tokenString, user, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials"})
			return
		}
		log.Errorf("Login failed for '%s': %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	log.Infof("User '%s' logged in successfully", user.Username)
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "username": user.Username})
}

// updateProfileRequest 定义了资料更新 API 的请求体；两个字段都是可选的。
type updateProfileRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Update 处理资料更新请求，只应用请求中出现的字段。
func (h *UserHandler) Update(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	userID := c.MustGet("userID").(bson.ObjectID)
	if err := h.userService.UpdateProfile(c.Request.Context(), userID, req.Username, req.Password); err != nil {
		if errors.Is(err, service.ErrDuplicateUsername) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
			return
		}
		log.Errorf("UpdateProfile failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Update failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

// Logout 处理用户登出请求，把当前 token 加入黑名单。
func (h *UserHandler) Logout(c *gin.Context) {
	tokenString := c.MustGet("token").(string)
	if err := h.userService.Logout(c.Request.Context(), tokenString); err != nil {
		log.Error("Logout failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
