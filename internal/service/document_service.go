package service

import (
	"context"
	"fmt"
	"time"

	"rag-chat-go/internal/apperr"
	"rag-chat-go/internal/model"
	"rag-chat-go/internal/pipeline"
	"rag-chat-go/internal/repository"
	"rag-chat-go/internal/vectorstore"
	"rag-chat-go/pkg/events"
	"rag-chat-go/pkg/kafka"
	"rag-chat-go/pkg/log"
	"rag-chat-go/pkg/storage"
)

// DocumentService 定义了文档生命周期管理的接口。
type DocumentService interface {
	Upload(ctx context.Context, file pipeline.RawFile) (*model.UploadResponseDTO, error)
	List(ctx context.Context) ([]model.DocumentDTO, error)
	Get(ctx context.Context, id uint) (*model.DocumentDTO, error)
	Delete(ctx context.Context, id uint) error
	DeleteAll(ctx context.Context) error
}

type documentService struct {
	processor *pipeline.Processor
	docRepo   repository.DocumentRepository
	store     vectorstore.Store
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(processor *pipeline.Processor, docRepo repository.DocumentRepository, store vectorstore.Store) DocumentService {
	return &documentService{
		processor: processor,
		docRepo:   docRepo,
		store:     store,
	}
}

// Upload 执行一次完整的文档摄取并返回上传结果。
// 摄取失败但记录已建立时，返回 ERROR 状态的结果而非错误。
func (s *documentService) Upload(ctx context.Context, file pipeline.RawFile) (*model.UploadResponseDTO, error) {
	doc, err := s.processor.Ingest(ctx, file)
	if err != nil {
		if doc == nil {
			// 校验失败，没有留下任何记录
			return nil, err
		}
		return &model.UploadResponseDTO{
			DocumentID: doc.DocID(),
			Filename:   doc.Filename,
			Status:     doc.Status,
			Message:    doc.ErrorMessage,
		}, nil
	}
	return &model.UploadResponseDTO{
		DocumentID: doc.DocID(),
		Filename:   doc.Filename,
		Status:     doc.Status,
		ChunkCount: doc.ChunkCount,
		Message:    "Document processed successfully",
	}, nil
}

// List 返回全部文档，按上传时间倒序。
func (s *documentService) List(ctx context.Context) ([]model.DocumentDTO, error) {
	docs, err := s.docRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询文档列表失败: %w", err)
	}
	dtos := make([]model.DocumentDTO, 0, len(docs))
	for i := range docs {
		dtos = append(dtos, model.NewDocumentDTO(&docs[i]))
	}
	return dtos, nil
}

// Get 按 ID 返回单个文档。
func (s *documentService) Get(ctx context.Context, id uint) (*model.DocumentDTO, error) {
	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := model.NewDocumentDTO(doc)
	return &dto, nil
}

// Delete 删除一个文档及其全部向量记录。
// 先删向量再删元数据：向量删除失败时两边都完好；
// 向量已删但元数据删除失败时返回一致性错误，提示需要人工修复。
func (s *documentService) Delete(ctx context.Context, id uint) error {
	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	docID := doc.DocID()

	if err := s.store.Delete(ctx, []string{docID}); err != nil {
		return fmt.Errorf("删除文档向量失败: %w", err)
	}
	if err := s.docRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: 向量已删除但元数据删除失败 (document_id=%s): %v", apperr.ErrConsistency, docID, err)
	}

	// 归档文件与事件均为尽力而为
	if storage.Enabled() {
		if err := storage.RemoveDocument(ctx, docID, doc.Filename); err != nil {
			log.Warnf("[Document] 删除归档文件失败, DocumentID: %s, Error: %v", docID, err)
		}
	}
	kafka.PublishDocumentEvent(events.DocumentEvent{
		Type:       events.DocumentDeleted,
		DocumentID: docID,
		Filename:   doc.Filename,
		OccurredAt: time.Now(),
	})
	log.Infof("[Document] 文档已删除, DocumentID: %s", docID)
	return nil
}

// DeleteAll 清空向量索引与全部文档元数据。
func (s *documentService) DeleteAll(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("清空向量索引失败: %w", err)
	}
	if err := s.docRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("%w: 向量已清空但元数据删除失败: %v", apperr.ErrConsistency, err)
	}
	log.Info("[Document] 已清空全部文档")
	return nil
}
