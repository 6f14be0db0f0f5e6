// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"company-admin/internal/apiserver/auth"
	"company-admin/internal/apiserver/httpx"
	"company-admin/internal/apiserver/server"
	"company-admin/internal/config"
	"company-admin/internal/shared/storage/mongostore"
	"company-admin/internal/shared/upload"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换 YAML 配置）
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	// 非生产环境 500 响应附带底层错误，便于联调
	httpx.ExposeInternalErrors = !cfg.IsProduction()

	// 初始化 MongoDB（持久化业务数据）
	store, err := mongostore.NewStore(cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()
	log.Println("Connected to MongoDB")

	// 初始化上传后端（local 默认；minio 走对象存储）
	uploads, staticRoot, err := newUploadStore(cfg)
	if err != nil {
		log.Fatalf("Failed to init upload store: %v", err)
	}
	log.Printf("Upload backend: %s", cfg.Upload.Backend)

	// 引导超级管理员（配置了 ADMIN_EMAIL / ADMIN_PASSWORD 时）
	if err := auth.EnsureSuperAdmin(store, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure super admin: %v", err)
	}

	h := server.NewHandler(store, cfg, uploads, staticRoot)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}

// newUploadStore 根据配置选择上传后端
//
// 返回的 staticRoot 非空时由 API Server 自己托管 /uploads/ 静态文件；
// minio 后端的文件 URL 直指对象存储，无需本地托管。
func newUploadStore(cfg *config.Config) (upload.Store, string, error) {
	if cfg.Upload.Backend == "minio" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s, err := upload.NewMinioStore(ctx, cfg.MinIO)
		if err != nil {
			return nil, "", err
		}
		return s, "", nil
	}

	s, err := upload.NewLocalStore(cfg.Upload.Dir)
	if err != nil {
		return nil, "", err
	}
	return s, s.Root(), nil
}
