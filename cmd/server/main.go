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

	"github.com/gin-gonic/gin"

	"rag-chat-go/internal/config"
	"rag-chat-go/internal/extract"
	"rag-chat-go/internal/handler"
	"rag-chat-go/internal/middleware"
	"rag-chat-go/internal/pipeline"
	"rag-chat-go/internal/repository"
	"rag-chat-go/internal/service"
	"rag-chat-go/internal/vectorstore"
	"rag-chat-go/pkg/database"
	"rag-chat-go/pkg/embedding"
	"rag-chat-go/pkg/kafka"
	"rag-chat-go/pkg/llm"
	"rag-chat-go/pkg/log"
	"rag-chat-go/pkg/storage"
	"rag-chat-go/pkg/tika"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 与可选的外部设施
	database.InitPostgres(cfg.Database.Postgres.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err := repository.AutoMigrateDocuments(database.DB); err != nil {
		log.Fatalf("文档元数据表迁移失败: %v", err)
	}
	storage.InitMinIO(cfg.MinIO)
	kafka.InitProducer(cfg.Kafka)
	defer kafka.Close()

	// 4. 初始化外部服务客户端
	tikaClient := tika.NewClient(cfg.Tika.ServerURL)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)

	// 5. 初始化向量索引后端（memory 或 pgvector，进程启动时决定一次）
	store, err := vectorstore.New(cfg.VectorStore, cfg.Embedding, embeddingClient, database.DB)
	if err != nil {
		log.Fatalf("初始化向量索引失败: %v", err)
	}
	log.Infof("向量索引后端: %s", cfg.VectorStore.Backend)

	// 6. 初始化 Repository 与 Service (依赖注入)
	docRepo := repository.NewDocumentRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.RDB)
	extractor := extract.NewService(tikaClient)
	processor := pipeline.NewProcessor(extractor, store, llmClient, docRepo, cfg.Ingest)
	documentService := service.NewDocumentService(processor, docRepo, store)
	ragService := service.NewRAGService(store, llmClient, cfg.RAG)
	chatService := service.NewChatService(store, llmClient, conversationRepo)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	documentHandler := handler.NewDocumentHandler(documentService)
	ragHandler := handler.NewRAGHandler(ragService)
	chatHandler := handler.NewChatHandler(chatService)

	apiV1 := r.Group("/api/v1")
	{
		documents := apiV1.Group("/documents")
		{
			documents.POST("", documentHandler.Upload)
			documents.GET("", documentHandler.List)
			documents.GET("/supported-types", documentHandler.SupportedTypes)
			documents.GET("/:id", documentHandler.Get)
			documents.DELETE("/:id", documentHandler.Delete)
			documents.DELETE("", documentHandler.DeleteAll)
		}

		rag := apiV1.Group("/rag")
		{
			rag.POST("/query", ragHandler.Query)
		}

		chatGroup := apiV1.Group("/chat")
		{
			chatGroup.GET("/websocket-token", chatHandler.GetWebsocketStopToken)
		}
	}
	r.GET("/chat", chatHandler.Handle)

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
