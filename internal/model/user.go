// Package model 包含了应用的数据模型定义。
package model

import "go.mongodb.org/mongo-driver/v2/bson"

// User 代表一个注册用户，存储在 users 集合中。
// 密码字段保存的是 bcrypt 哈希，永远不会出现在 JSON 响应里。
type User struct {
	ID       bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username string        `bson:"username" json:"username"`
	Password string        `bson:"password" json:"-"`
}
