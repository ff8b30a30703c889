package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	// DefaultTitle 是新建会话的初始标题；第一条消息发送后会被自动改写。
	DefaultTitle = "New Chat"
	// LegacyTitle 是收养历史孤儿消息时合成会话的标题。
	LegacyTitle = "Previous Chat History"
)

// Conversation 代表一个命名会话，存储在 conversations 集合中。
// JSON 字段名与浏览器端约定一致（_id、userId、title、updatedAt）。
type Conversation struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID    bson.ObjectID `bson:"userId" json:"userId"`
	Title     string        `bson:"title" json:"title"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}
