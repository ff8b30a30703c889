package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	// RoleUser 标记用户发出的消息。
	RoleUser = "user"
	// RoleModel 标记模型生成的回复。
	RoleModel = "model"
)

// Message 代表一条聊天消息，存储在 chats 集合中，写入后不可变。
// 历史数据可能缺少 conversationId，列表会话时会被收养（见 ConversationService）。
type Message struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	ConversationID bson.ObjectID `bson:"conversationId,omitempty" json:"conversationId"`
	UserID         bson.ObjectID `bson:"userId" json:"userId"`
	Role           string        `bson:"role" json:"role"`
	Text           string        `bson:"text" json:"text"`
	Timestamp      time.Time     `bson:"timestamp" json:"timestamp"`
}
