package service

import (
	"context"
	"strings"
	"time"

	"github.com/Agk8907/AI-chat-Application/internal/model"
	"github.com/Agk8907/AI-chat-Application/internal/repository"
	"github.com/Agk8907/AI-chat-Application/pkg/llm"
	"github.com/Agk8907/AI-chat-Application/pkg/log"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// titleMaxLen 是自动派生标题的最大长度（按 rune 计）。
const titleMaxLen = 30

// ChatService 执行一个完整的聊天回合：先落库用户消息，再把上游的流式输出
// 边转发边累积，结束后持久化完整回复。
type ChatService interface {
	// PrepareTurn 在开始流式响应前执行：持久化用户消息，并在会话仍是默认
	// 标题时根据首条消息派生新标题（尽力而为，失败不重试）。
	PrepareTurn(ctx context.Context, userID, conversationID bson.ObjectID, text string) error
	// StreamReply 调用上游生成接口，把文本片段按序写入 out。
	// 流正常结束且有累积文本时，把完整回复存为 model 消息并推进会话时间戳。
	StreamReply(ctx context.Context, userID, conversationID bson.ObjectID, text string, out llm.ChunkWriter) error
}

type chatService struct {
	convoRepo repository.ConversationRepository
	msgRepo   repository.MessageRepository
	llmClient llm.Client
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(convoRepo repository.ConversationRepository, msgRepo repository.MessageRepository, llmClient llm.Client) ChatService {
	return &chatService{
		convoRepo: convoRepo,
		msgRepo:   msgRepo,
		llmClient: llmClient,
	}
}

// PrepareTurn 持久化用户消息并做一次性的标题派生。
// 用户消息先于上游调用写入，生成失败也不会丢失提问。
func (s *chatService) PrepareTurn(ctx context.Context, userID, conversationID bson.ObjectID, text string) error {
	userMsg := &model.Message{
		ConversationID: conversationID,
		UserID:         userID,
		Role:           model.RoleUser,
		Text:           text,
		Timestamp:      time.Now(),
	}
	if err := s.msgRepo.Create(ctx, userMsg); err != nil {
		return err
	}

	// 标题派生只在会话仍是默认标题时发生一次；查找或更新失败仅记录日志
	convo, err := s.convoRepo.FindByIDAndUser(ctx, conversationID, userID)
	if err != nil {
		log.Warnf("failed to load conversation %s for title check: %v", conversationID.Hex(), err)
		return nil
	}
	if convo.Title == model.DefaultTitle {
		if err := s.convoRepo.UpdateTitle(ctx, conversationID, userID, deriveTitle(text)); err != nil {
			log.Warnf("failed to update conversation title: %v", err)
		}
	}
	return nil
}

// StreamReply 把上游输出边转发边累积，结束后持久化完整回复。
func (s *chatService) StreamReply(ctx context.Context, userID, conversationID bson.ObjectID, text string, out llm.ChunkWriter) error {
	// 拦截 writer 以捕获完整答案
	interceptor := &chunkInterceptor{next: out, builder: &strings.Builder{}}

	if err := s.llmClient.StreamGenerateContent(ctx, text, interceptor); err != nil {
		return err
	}

	fullText := interceptor.builder.String()
	if fullText == "" {
		return nil
	}

	// 使用后台上下文保存：即使原始请求被客户端中止，已生成的部分也要落库
	saveCtx := context.Background()
	aiMsg := &model.Message{
		ConversationID: conversationID,
		UserID:         userID,
		Role:           model.RoleModel,
		Text:           fullText,
		Timestamp:      time.Now(),
	}
	if err := s.msgRepo.Create(saveCtx, aiMsg); err != nil {
		// 流式响应已经送达客户端，这里只记录错误
		log.Errorf("failed to save model message: %v", err)
		return nil
	}
	if err := s.convoRepo.Touch(saveCtx, conversationID, time.Now()); err != nil {
		log.Errorf("failed to touch conversation: %v", err)
	}
	return nil
}

// deriveTitle 从首条用户消息派生会话标题：超过 30 个字符时截断并加省略号。
func deriveTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleMaxLen {
		return text
	}
	return string(runes[:titleMaxLen]) + "..."
}

// chunkInterceptor 在转发文本片段的同时累积完整回复。
type chunkInterceptor struct {
	next    llm.ChunkWriter
	builder *strings.Builder
}

// WriteChunk 满足 llm.ChunkWriter 接口。
func (w *chunkInterceptor) WriteChunk(data []byte) error {
	w.builder.Write(data)
	return w.next.WriteChunk(data)
}
