package service

import (
	"context"
	"time"

	"github.com/Agk8907/AI-chat-Application/internal/model"
	"github.com/Agk8907/AI-chat-Application/internal/repository"
	"github.com/Agk8907/AI-chat-Application/pkg/log"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ConversationService 定义了会话及其消息的业务操作，全部以调用者的 userId 做隔离。
type ConversationService interface {
	List(ctx context.Context, userID bson.ObjectID) ([]model.Conversation, error)
	Create(ctx context.Context, userID bson.ObjectID) (*model.Conversation, error)
	Rename(ctx context.Context, id, userID bson.ObjectID, title string) error
	Delete(ctx context.Context, id, userID bson.ObjectID) error
	History(ctx context.Context, conversationID, userID bson.ObjectID) ([]model.Message, error)
}

type conversationService struct {
	convoRepo repository.ConversationRepository
	msgRepo   repository.MessageRepository
}

// NewConversationService 创建一个新的 ConversationService 实例。
func NewConversationService(convoRepo repository.ConversationRepository, msgRepo repository.MessageRepository) ConversationService {
	return &conversationService{
		convoRepo: convoRepo,
		msgRepo:   msgRepo,
	}
}

// List 返回用户的全部会话，按最后更新时间倒序。
// 列表前先做历史数据收养：把缺少会话引用的旧消息归入一个合成的
// "Previous Chat History" 会话。收养后孤儿数归零，重复调用不会产生重复会话。
func (s *conversationService) List(ctx context.Context, userID bson.ObjectID) ([]model.Conversation, error) {
	orphaned, err := s.msgRepo.CountOrphans(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orphaned > 0 {
		legacy := &model.Conversation{
			UserID:    userID,
			Title:     model.LegacyTitle,
			UpdatedAt: time.Now(),
		}
		if err := s.convoRepo.Create(ctx, legacy); err != nil {
			return nil, err
		}
		if err := s.msgRepo.AdoptOrphans(ctx, userID, legacy.ID); err != nil {
			return nil, err
		}
		log.Infof("adopted %d orphaned messages into conversation %s", orphaned, legacy.ID.Hex())
	}

	return s.convoRepo.FindByUser(ctx, userID)
}

// Create 新建一个标题为 "New Chat" 的空会话并返回。
func (s *conversationService) Create(ctx context.Context, userID bson.ObjectID) (*model.Conversation, error) {
	convo := &model.Conversation{
		UserID:    userID,
		Title:     model.DefaultTitle,
		UpdatedAt: time.Now(),
	}
	if err := s.convoRepo.Create(ctx, convo); err != nil {
		return nil, err
	}
	return convo, nil
}

// Rename 重命名会话。目标不存在或不属于该用户时静默不生效。
func (s *conversationService) Rename(ctx context.Context, id, userID bson.ObjectID, title string) error {
	return s.convoRepo.UpdateTitle(ctx, id, userID, title)
}

// Delete 删除会话及其全部消息。先删消息再删会话，两步不在同一事务内，
// 中途崩溃可能留下孤儿消息，这是已接受的限制。
func (s *conversationService) Delete(ctx context.Context, id, userID bson.ObjectID) error {
	if _, err := s.convoRepo.FindByIDAndUser(ctx, id, userID); err != nil {
		return err
	}
	if err := s.msgRepo.DeleteByConversation(ctx, id); err != nil {
		return err
	}
	return s.convoRepo.Delete(ctx, id)
}

// History 返回某会话内属于该用户的全部消息，按时间正序。
func (s *conversationService) History(ctx context.Context, conversationID, userID bson.ObjectID) ([]model.Message, error) {
	return s.msgRepo.FindByConversation(ctx, conversationID, userID)
}
