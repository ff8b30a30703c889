// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port      string `mapstructure:"port"`
	Mode      string `mapstructure:"mode"`
	StaticDir string `mapstructure:"static_dir"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	Mongo MongoConfig `mapstructure:"mongo"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MongoConfig 存储 MongoDB 的配置。
type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// RedisConfig 存储 Redis 的配置。Addr 为空时禁用 Redis，登出降级为纯客户端行为。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
// ExpireHours 为 0 时签发的 token 不携带过期声明，对齐原前端的长期会话语义。
type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// GeminiConfig 存储上游生成接口的配置。
type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
// 环境变量优先于配置文件，便于容器化部署。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}

	applyEnvOverrides()
}

// applyEnvOverrides 用环境变量覆盖文件配置。
func applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		Conf.Server.Port = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		Conf.Database.Mongo.URI = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		Conf.Database.Redis.Addr = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		Conf.JWT.Secret = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		Conf.Gemini.APIKey = v
	}
}
