// Package database 管理进程级的数据库连接。
package database

import (
	"context"
	"time"

	"github.com/Agk8907/AI-chat-Application/pkg/log"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

var (
	mongoClient *mongo.Client
	// DB 是进程内共享的数据库句柄，启动时初始化一次，所有请求复用。
	DB *mongo.Database
)

// InitMongo 初始化 MongoDB 连接并创建必要的索引。
func InitMongo(uri, dbName string) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		log.Fatal("failed to connect to mongodb", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatal("failed to ping mongodb", err)
	}

	mongoClient = client
	DB = client.Database(dbName)

	if err := createIndexes(ctx); err != nil {
		log.Fatal("failed to create indexes", err)
	}

	log.Info("MongoDB connected successfully")
}

// createIndexes 为各集合建立查询所需的索引。
func createIndexes(ctx context.Context) error {
	// 用户名唯一索引，注册时的重名冲突依赖它
	_, err := DB.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	// 会话列表按 updatedAt 倒序展示
	_, err = DB.Collection("conversations").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "updatedAt", Value: -1}},
	})
	if err != nil {
		return err
	}

	// 历史消息按时间正序拉取
	_, err = DB.Collection("chats").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "conversationId", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	return err
}

// CloseMongo 断开 MongoDB 连接。
func CloseMongo(ctx context.Context) error {
	if mongoClient == nil {
		return nil
	}
	return mongoClient.Disconnect(ctx)
}
