package repository

import (
	"context"
	"fmt"

	"github.com/Agk8907/AI-chat-Application/internal/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MessageRepository 定义了聊天消息的持久化操作。
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	FindByConversation(ctx context.Context, conversationID, userID bson.ObjectID) ([]model.Message, error)
	DeleteByConversation(ctx context.Context, conversationID bson.ObjectID) error
	CountOrphans(ctx context.Context, userID bson.ObjectID) (int64, error)
	AdoptOrphans(ctx context.Context, userID, conversationID bson.ObjectID) error
}

// messageRepository 是 MessageRepository 接口的 MongoDB 实现。
type messageRepository struct {
	coll *mongo.Collection
}

// NewMessageRepository 创建一个新的 MessageRepository 实例。
func NewMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{coll: db.Collection("chats")}
}

// Create 插入一条消息文档，并回填生成的 ID。
func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	result, err := r.coll.InsertOne(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	msg.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// FindByConversation 返回某会话内属于指定用户的全部消息，按时间正序。
func (r *messageRepository) FindByConversation(ctx context.Context, conversationID, userID bson.ObjectID) ([]model.Message, error) {
	opts := options.Find().SetSort(bson.M{"timestamp": 1})
	filter := bson.M{"conversationId": conversationID, "userId": userID}
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []model.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}

// DeleteByConversation 删除某会话的全部消息（级联删除的第一步）。
func (r *messageRepository) DeleteByConversation(ctx context.Context, conversationID bson.ObjectID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"conversationId": conversationID})
	if err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}

// CountOrphans 统计用户名下缺少会话引用的历史消息数量。
func (r *messageRepository) CountOrphans(ctx context.Context, userID bson.ObjectID) (int64, error) {
	filter := bson.M{"userId": userID, "conversationId": bson.M{"$exists": false}}
	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count orphaned messages: %w", err)
	}
	return count, nil
}

// AdoptOrphans 把用户名下所有无会话引用的消息归入指定会话。
func (r *messageRepository) AdoptOrphans(ctx context.Context, userID, conversationID bson.ObjectID) error {
	filter := bson.M{"userId": userID, "conversationId": bson.M{"$exists": false}}
	_, err := r.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"conversationId": conversationID}})
	if err != nil {
		return fmt.Errorf("failed to adopt orphaned messages: %w", err)
	}
	return nil
}
