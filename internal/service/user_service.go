// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"time"

	"github.com/Agk8907/AI-chat-Application/internal/model"
	"github.com/Agk8907/AI-chat-Application/internal/repository"
	"github.com/Agk8907/AI-chat-Application/pkg/database"
	"github.com/Agk8907/AI-chat-Application/pkg/hash"
	"github.com/Agk8907/AI-chat-Application/pkg/token"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	// ErrDuplicateUsername 表示注册或改名时用户名已被占用。
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidCredentials 表示用户名不存在或密码不匹配。
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(ctx context.Context, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (tokenString string, user *model.User, err error)
	UpdateProfile(ctx context.Context, userID bson.ObjectID, username, password string) error
	Logout(ctx context.Context, tokenString string) error
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

// Register 处理用户注册的业务逻辑。
func (s *userService) Register(ctx context.Context, username, password string) (*model.User, error) {
	// 1. 检查用户名是否已存在
	_, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		return nil, ErrDuplicateUsername
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 3. 创建新用户；唯一索引兜底并发注册的竞态
	newUser := &model.User{
		Username: username,
		Password: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}

	return newUser, nil
}

// Login 处理用户登录的业务逻辑，成功时签发 token。
func (s *userService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !hash.CheckPasswordHash(password, user.Password) {
		return "", nil, ErrInvalidCredentials
	}

	tokenString, err := s.jwtManager.GenerateToken(user.ID.Hex())
	if err != nil {
		return "", nil, err
	}

	return tokenString, user, nil
}

// UpdateProfile 更新用户资料，只应用调用方提供的字段；新密码会重新哈希。
func (s *userService) UpdateProfile(ctx context.Context, userID bson.ObjectID, username, password string) error {
	updates := bson.M{}
	if username != "" {
		updates["username"] = username
	}
	if password != "" {
		hashedPassword, err := hash.HashPassword(password)
		if err != nil {
			return err
		}
		updates["password"] = hashedPassword
	}

	if err := s.userRepo.UpdateFields(ctx, userID, updates); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

// Logout 将 token 加入 Redis 黑名单；未配置 Redis 时登出只发生在客户端。
func (s *userService) Logout(ctx context.Context, tokenString string) error {
	if database.RDB == nil {
		return nil
	}

	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return err
	}

	// token 的剩余有效期作为黑名单条目的过期时间；无过期声明的 token 保留 30 天
	expiration := 30 * 24 * time.Hour
	if claims.ExpiresAt != nil {
		expiration = time.Until(claims.ExpiresAt.Time)
	}
	return database.RDB.Set(ctx, "blacklist:"+tokenString, "true", expiration).Err()
}
