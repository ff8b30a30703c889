// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Agk8907/AI-chat-Application/internal/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	// ErrNotFound 表示目标文档不存在，或不属于当前用户。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey 表示唯一索引冲突（目前只有用户名）。
	ErrDuplicateKey = errors.New("duplicate key")
)

// UserRepository 接口定义了用户数据的持久化操作。
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*model.User, error)
	UpdateFields(ctx context.Context, id bson.ObjectID, updates bson.M) error
}

// userRepository 是 UserRepository 接口的 MongoDB 实现。
type userRepository struct {
	coll *mongo.Collection
}

// NewUserRepository 创建一个新的 UserRepository 实例。
func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{coll: db.Collection("users")}
}

// Create 插入一个新的用户文档，并回填生成的 ID。
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	result, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	user.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// FindByUsername 根据用户名查找一个用户。
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// FindByID 根据 ID 查找一个用户。
func (r *userRepository) FindByID(ctx context.Context, id bson.ObjectID) (*model.User, error) {
	var user model.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// UpdateFields 对用户文档做部分更新，只写入调用方给出的字段。
func (r *userRepository) UpdateFields(ctx context.Context, id bson.ObjectID, updates bson.M) error {
	if len(updates) == 0 {
		return nil
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}
