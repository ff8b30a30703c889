package handler

import (
	"errors"
	"net/http"

	"github.com/Agk8907/AI-chat-Application/internal/service"
	"github.com/Agk8907/AI-chat-Application/pkg/llm"
	"github.com/Agk8907/AI-chat-Application/pkg/log"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// upstreamErrorText 是上游不可用时写入流的字面错误文本。
// 响应头已经发出，状态码无法更改，只能以流内文本报告。
const upstreamErrorText = "Error: AI Service Unavailable."

// ChatHandler 负责消息历史查询与流式聊天。
type ChatHandler struct {
	chatService  service.ChatService
	convoService service.ConversationService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService, convoService service.ConversationService) *ChatHandler {
	return &ChatHandler{
		chatService:  chatService,
		convoService: convoService,
	}
}

// History 返回某会话内属于当前用户的全部消息，按时间正序。
func (h *ChatHandler) History(c *gin.Context) {
	userID := c.MustGet("userID").(bson.ObjectID)

	conversationID, err := bson.ObjectIDFromHex(c.Param("conversationId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch"})
		return
	}

	messages, err := h.convoService.History(c.Request.Context(), conversationID, userID)
	if err != nil {
		log.Errorf("History failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// streamRequest 定义了流式聊天的请求体。
type streamRequest struct {
	Text           string `json:"text" binding:"required"`
	ConversationID string `json:"conversationId"`
}

// Stream 执行一个聊天回合，把上游生成的文本片段以分块的 text/plain 流式转发。
func (h *ChatHandler) Stream(c *gin.Context) {
	userID := c.MustGet("userID").(bson.ObjectID)

	var req streamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}
	if req.ConversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing ID"})
		return
	}
	conversationID, err := bson.ObjectIDFromHex(req.ConversationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing ID"})
		return
	}

	// 用户消息与标题派生在发送响应头之前完成，此时还能返回 JSON 错误
	if err := h.chatService.PrepareTurn(c.Request.Context(), userID, conversationID, req.Text); err != nil {
		log.Errorf("PrepareTurn failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stream failed"})
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)

	out := &flushWriter{c: c}
	if err := h.chatService.StreamReply(c.Request.Context(), userID, conversationID, req.Text, out); err != nil {
		if errors.Is(err, llm.ErrUpstreamUnavailable) {
			_ = out.WriteChunk([]byte(upstreamErrorText))
			return
		}
		// 响应头已发出，只能结束流
		log.Errorf("StreamReply failed: %v", err)
	}
}

// flushWriter 把每个文本片段立即写入响应并刷出，保证客户端实时看到增量输出。
type flushWriter struct {
	c *gin.Context
}

// WriteChunk 满足 llm.ChunkWriter 接口。
func (w *flushWriter) WriteChunk(data []byte) error {
	if _, err := w.c.Writer.Write(data); err != nil {
		return err
	}
	w.c.Writer.Flush()
	return nil
}
