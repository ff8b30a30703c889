package database

import (
	"context"

	"github.com/Agk8907/AI-chat-Application/pkg/log"

	"github.com/go-redis/redis/v8"
)

// RDB 是进程内共享的 Redis 客户端，仅用于登出 token 黑名单。
// 未配置地址时保持为 nil，相关功能自动降级。
var RDB *redis.Client

// InitRedis 初始化 Redis 客户端连接。
func InitRedis(addr, password string, db int) {
	if addr == "" {
		log.Info("Redis not configured, token blacklist disabled")
		return
	}

	RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// 测试连接
	ctx := context.Background()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", err)
	}

	log.Info("Redis client connected successfully")
}
