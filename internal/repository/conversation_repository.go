package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Agk8907/AI-chat-Application/internal/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ConversationRepository 定义了会话元数据的持久化操作，全部以 userId 做归属过滤。
type ConversationRepository interface {
	Create(ctx context.Context, convo *model.Conversation) error
	FindByUser(ctx context.Context, userID bson.ObjectID) ([]model.Conversation, error)
	FindByIDAndUser(ctx context.Context, id, userID bson.ObjectID) (*model.Conversation, error)
	UpdateTitle(ctx context.Context, id, userID bson.ObjectID, title string) error
	Touch(ctx context.Context, id bson.ObjectID, at time.Time) error
	Delete(ctx context.Context, id bson.ObjectID) error
}

// conversationRepository 是 ConversationRepository 接口的 MongoDB 实现。
type conversationRepository struct {
	coll *mongo.Collection
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(db *mongo.Database) ConversationRepository {
	return &conversationRepository{coll: db.Collection("conversations")}
}

// Create 插入一个新的会话文档，并回填生成的 ID。
func (r *conversationRepository) Create(ctx context.Context, convo *model.Conversation) error {
	result, err := r.coll.InsertOne(ctx, convo)
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	convo.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// FindByUser 返回用户的全部会话，按最后更新时间倒序。
func (r *conversationRepository) FindByUser(ctx context.Context, userID bson.ObjectID) ([]model.Conversation, error) {
	opts := options.Find().SetSort(bson.M{"updatedAt": -1})
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find conversations: %w", err)
	}
	defer cursor.Close(ctx)

	conversations := []model.Conversation{}
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	return conversations, nil
}

// FindByIDAndUser 查找属于指定用户的单个会话；不存在或不属于该用户时返回 ErrNotFound。
func (r *conversationRepository) FindByIDAndUser(ctx context.Context, id, userID bson.ObjectID) (*model.Conversation, error) {
	var convo model.Conversation
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&convo)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	return &convo, nil
}

// UpdateTitle 更新会话标题，过滤条件带 userId。
// 目标不存在时静默不生效，与重命名接口的历史行为保持一致。
func (r *conversationRepository) UpdateTitle(ctx context.Context, id, userID bson.ObjectID, title string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{"title": title}})
	if err != nil {
		return fmt.Errorf("failed to update title: %w", err)
	}
	return nil
}

// Touch 把会话的 updatedAt 推进到指定时间。
func (r *conversationRepository) Touch(ctx context.Context, id bson.ObjectID, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"updatedAt": at}})
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}

// Delete 删除会话文档本身，消息的级联删除由 service 层先行完成。
func (r *conversationRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}
