// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Agk8907/AI-chat-Application/internal/config"
	"github.com/Agk8907/AI-chat-Application/internal/handler"
	"github.com/Agk8907/AI-chat-Application/internal/middleware"
	"github.com/Agk8907/AI-chat-Application/internal/repository"
	"github.com/Agk8907/AI-chat-Application/internal/service"
	"github.com/Agk8907/AI-chat-Application/pkg/database"
	"github.com/Agk8907/AI-chat-Application/pkg/llm"
	"github.com/Agk8907/AI-chat-Application/pkg/log"
	"github.com/Agk8907/AI-chat-Application/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 缺少上游 API Key 无法提供核心功能，直接终止启动
	if cfg.Gemini.APIKey == "" {
		log.Fatalf("GEMINI_API_KEY 未设置，服务无法启动")
	}

	// 3. 初始化数据库连接
	database.InitMongo(cfg.Database.Mongo.URI, cfg.Database.Mongo.Database)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	convoRepo := repository.NewConversationRepository(database.DB)
	msgRepo := repository.NewMessageRepository(database.DB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	llmClient := llm.NewClient(cfg.Gemini)
	userService := service.NewUserService(userRepo, jwtManager)
	convoService := service.NewConversationService(convoRepo, msgRepo)
	chatService := service.NewChatService(convoRepo, msgRepo, llmClient)

	// 6. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 7. 注册路由
	userHandler := handler.NewUserHandler(userService)
	convoHandler := handler.NewConversationHandler(convoService)
	chatHandler := handler.NewChatHandler(chatService, convoService)

	api := r.Group("/api")
	{
		// 无需认证的路由 (公开访问)
		api.POST("/register", userHandler.Register)
		api.POST("/login", userHandler.Login)

		// 需要认证的路由 (仅限登录用户访问)
		authed := api.Group("/")
		authed.Use(middleware.AuthMiddleware(jwtManager))
		{
			authed.PUT("/user", userHandler.Update)
			authed.POST("/logout", userHandler.Logout)

			authed.GET("/conversations", convoHandler.List)
			authed.POST("/conversations", convoHandler.Create)
			authed.PUT("/conversations/:id", convoHandler.Rename)
			authed.DELETE("/conversations/:id", convoHandler.Delete)

			authed.GET("/chat/:conversationId", chatHandler.History)
			authed.POST("/chat", chatHandler.Stream)
		}
	}

	// 8. 浏览器客户端静态文件
	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = "./public"
	}
	r.StaticFile("/", staticDir+"/index.html")
	r.StaticFile("/script.js", staticDir+"/script.js")
	r.StaticFile("/style.css", staticDir+"/style.css")

	// 9. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	if err := database.CloseMongo(ctx); err != nil {
		log.Error("MongoDB 断开连接失败", err)
	}

	log.Info("服务已优雅关闭")
}
