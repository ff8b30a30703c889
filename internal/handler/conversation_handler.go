package handler

import (
	"errors"
	"net/http"

	"github.com/Agk8907/AI-chat-Application/internal/repository"
	"github.com/Agk8907/AI-chat-Application/internal/service"
	"github.com/Agk8907/AI-chat-Application/pkg/log"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ConversationHandler 处理会话的增删改查请求。
type ConversationHandler struct {
	convoService service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler 实例。
func NewConversationHandler(convoService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convoService: convoService}
}

// List 返回当前用户的全部会话，按最后更新时间倒序。
func (h *ConversationHandler) List(c *gin.Context) {
	userID := c.MustGet("userID").(bson.ObjectID)

	conversations, err := h.convoService.List(c.Request.Context(), userID)
	if err != nil {
		log.Errorf("List conversations failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch"})
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// Create 新建一个会话并返回它。
func (h *ConversationHandler) Create(c *gin.Context) {
	userID := c.MustGet("userID").(bson.ObjectID)

	convo, err := h.convoService.Create(c.Request.Context(), userID)
	if err != nil {
		log.Errorf("Create conversation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create"})
		return
	}
	c.JSON(http.StatusOK, convo)
}

// renameRequest 定义了会话重命名的请求体。
type renameRequest struct {
	Title string `json:"title" binding:"required"`
}

// Rename 更新会话标题。目标不属于当前用户时静默不生效。
func (h *ConversationHandler) Rename(c *gin.Context) {
	userID := c.MustGet("userID").(bson.ObjectID)

	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update"})
		return
	}

	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing title"})
		return
	}

	if err := h.convoService.Rename(c.Request.Context(), id, userID, req.Title); err != nil {
		log.Errorf("Rename conversation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Title updated"})
}

// Delete 删除会话及其全部消息。目标不存在或不属于当前用户时返回 404。
func (h *ConversationHandler) Delete(c *gin.Context) {
	userID := c.MustGet("userID").(bson.ObjectID)

	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	if err := h.convoService.Delete(c.Request.Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		log.Errorf("Delete conversation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}
