// Package storage 提供了与对象存储服务（如 MinIO）交互的功能。
// 摄取管道将原始上传文件归档到对象存储，删除文档时一并移除。
package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"rag-chat-go/internal/config"
	"rag-chat-go/pkg/log"
)

// MinioClient 是一个全局的 MinIO 客户端实例。
// 未配置 endpoint 时保持为 nil，归档功能整体停用。
var MinioClient *minio.Client

var bucketName string

// InitMinIO 初始化 MinIO 客户端并确保指定的存储桶存在。
// Endpoint 为空时归档功能保持停用。
func InitMinIO(cfg config.MinIOConfig) {
	if cfg.Endpoint == "" {
		log.Info("MinIO 未配置, 原始文件归档已停用")
		return
	}

	var err error

	// 1. 初始化 MinIO 客户端
	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("初始化 MinIO 客户端失败", err)
	}
	bucketName = cfg.BucketName

	log.Info("MinIO 客户端初始化成功")

	// 2. 检查存储桶 (Bucket) 是否存在，如果不存在则创建
	ctx := context.Background()
	exists, err := MinioClient.BucketExists(ctx, bucketName)
	if err != nil {
		log.Fatal("检查 MinIO 存储桶失败", err)
	}

	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", bucketName)
		err = MinioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			log.Fatal("创建 MinIO 存储桶失败", err)
		}
		log.Infof("存储桶 '%s' 创建成功", bucketName)
	} else {
		log.Infof("存储桶 '%s' 已存在", bucketName)
	}
}

// Enabled 报告对象存储归档是否可用。
func Enabled() bool {
	return MinioClient != nil
}

// ArchiveDocument 将原始文件内容按文档ID归档到对象存储。
func ArchiveDocument(ctx context.Context, documentID, filename, contentType string, data []byte) error {
	if !Enabled() {
		return nil
	}
	objectName := objectNameFor(documentID, filename)
	_, err := MinioClient.PutObject(ctx, bucketName, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("归档文件到 MinIO 失败: %w", err)
	}
	return nil
}

// RemoveDocument 删除文档对应的归档对象，对象不存在时视为成功。
func RemoveDocument(ctx context.Context, documentID, filename string) error {
	if !Enabled() {
		return nil
	}
	objectName := objectNameFor(documentID, filename)
	if err := MinioClient.RemoveObject(ctx, bucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除 MinIO 归档对象失败: %w", err)
	}
	return nil
}

// objectNameFor 生成归档对象名，按文档ID分目录避免文件名冲突。
func objectNameFor(documentID, filename string) string {
	return fmt.Sprintf("documents/%s/%s", documentID, filename)
}
