// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"rag-chat-go/internal/apperr"
	"rag-chat-go/internal/model"
)

// DocumentRepository 定义了文档元数据的持久化操作接口。
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.DocumentMetadata) error
	Save(ctx context.Context, doc *model.DocumentMetadata) error
	FindByID(ctx context.Context, id uint) (*model.DocumentMetadata, error)
	FindAll(ctx context.Context) ([]model.DocumentMetadata, error)
	Delete(ctx context.Context, id uint) error
	DeleteAll(ctx context.Context) error
}

// gormDocumentRepository 是 DocumentRepository 接口的 GORM 实现。
type gormDocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &gormDocumentRepository{db: db}
}

// AutoMigrateDocuments 迁移文档元数据表结构。
func AutoMigrateDocuments(db *gorm.DB) error {
	return db.AutoMigrate(&model.DocumentMetadata{})
}

// Create 创建一条文档元数据记录，ID 由数据库自增分配。
func (r *gormDocumentRepository) Create(ctx context.Context, doc *model.DocumentMetadata) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// Save 保存文档元数据的全部字段，用于摄取完成或失败后的状态落库。
func (r *gormDocumentRepository) Save(ctx context.Context, doc *model.DocumentMetadata) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

// FindByID 按 ID 查找文档，不存在时返回 apperr.ErrNotFound。
func (r *gormDocumentRepository) FindByID(ctx context.Context, id uint) (*model.DocumentMetadata, error) {
	var doc model.DocumentMetadata
	err := r.db.WithContext(ctx).First(&doc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 文档 %d 不存在", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindAll 返回全部文档，按上传时间倒序排列。
func (r *gormDocumentRepository) FindAll(ctx context.Context) ([]model.DocumentMetadata, error) {
	var docs []model.DocumentMetadata
	err := r.db.WithContext(ctx).Order("uploaded_at desc").Find(&docs).Error
	return docs, err
}

// Delete 删除一条文档元数据记录。
func (r *gormDocumentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.DocumentMetadata{}, id).Error
}

// DeleteAll 删除全部文档元数据记录。
func (r *gormDocumentRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&model.DocumentMetadata{}).Error
}
