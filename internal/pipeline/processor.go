package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rag-chat-go/internal/apperr"
	"rag-chat-go/internal/config"
	"rag-chat-go/internal/extract"
	"rag-chat-go/internal/model"
	"rag-chat-go/internal/repository"
	"rag-chat-go/internal/vectorstore"
	"rag-chat-go/pkg/events"
	"rag-chat-go/pkg/kafka"
	"rag-chat-go/pkg/llm"
	"rag-chat-go/pkg/log"
	"rag-chat-go/pkg/storage"
)

// 摘要生成失败时的兜底模板。
const summaryFallback = "Document containing %d sections with various content types"

// RawFile 是一次上传的原始文件。
type RawFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// Processor 封装了文档摄取的所有依赖和逻辑。
// 摄取按固定顺序推进：校验、建立元数据记录、提取、分块、富化、入库、生成摘要。
type Processor struct {
	extractor extract.Extractor
	store     vectorstore.Store
	llmClient llm.Client
	docRepo   repository.DocumentRepository
	ingestCfg config.IngestConfig
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	extractor extract.Extractor,
	store vectorstore.Store,
	llmClient llm.Client,
	docRepo repository.DocumentRepository,
	ingestCfg config.IngestConfig,
) *Processor {
	return &Processor{
		extractor: extractor,
		store:     store,
		llmClient: llmClient,
		docRepo:   docRepo,
		ingestCfg: ingestCfg,
	}
}

// Ingest 是文档摄取的主函数。
// 校验失败在任何写入发生之前返回；校验通过后的失败会把文档记录
// 置为 ERROR 终态并返回包装后的错误，调用方仍可拿到文档记录。
func (p *Processor) Ingest(ctx context.Context, file RawFile) (*model.DocumentMetadata, error) {
	log.Infof("[Processor] 开始摄取文件, FileName: %s, Size: %d", file.Name, file.Size)

	// 1. 前置校验：任何失败都不留下痕迹
	log.Info("[Processor] 步骤1: 校验上传文件")
	detectedType, err := p.validate(file)
	if err != nil {
		log.Warnf("[Processor] 文件校验未通过, FileName: %s, Error: %v", file.Name, err)
		return nil, err
	}

	// 2. 建立 PROCESSING 状态的元数据记录
	log.Info("[Processor] 步骤2: 建立文档元数据记录")
	doc := &model.DocumentMetadata{
		Filename:    file.Name,
		ContentType: detectedType,
		FileSize:    file.Size,
		Status:      model.StatusProcessing,
	}
	if err := p.docRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("%w: 创建文档记录失败: %v", apperr.ErrIngestion, err)
	}
	docID := doc.DocID()
	kafka.PublishDocumentEvent(events.DocumentEvent{
		Type:       events.DocumentCreated,
		DocumentID: docID,
		Filename:   file.Name,
		OccurredAt: time.Now(),
	})

	// 3. 归档原始文件（未配置 MinIO 时跳过，失败不阻断摄取）
	if storage.Enabled() {
		log.Info("[Processor] 步骤3: 归档原始文件到对象存储")
		if err := storage.ArchiveDocument(ctx, docID, file.Name, detectedType, file.Data); err != nil {
			log.Warnf("[Processor] 归档原始文件失败, DocumentID: %s, Error: %v", docID, err)
		}
	}

	// 4. 提取文本片段
	log.Infof("[Processor] 步骤4: 提取文本, ContentType: %s", detectedType)
	segments, contentLabel, err := p.extractor.Extract(ctx, file.Data, file.Name, detectedType)
	if err != nil {
		return p.fail(ctx, doc, fmt.Errorf("提取文本失败: %w", err))
	}
	log.Infof("[Processor] 步骤4: 提取完成, 共 %d 个片段", len(segments))

	// 5. 分块并富化元数据
	log.Infof("[Processor] 步骤5: 文本分块, chunkSize: %d, chunkOverlap: %d", p.ingestCfg.ChunkSize, p.ingestCfg.ChunkOverlap)
	chunks, err := p.buildChunks(segments, file, docID, contentLabel)
	if err != nil {
		return p.fail(ctx, doc, err)
	}
	if len(chunks) == 0 {
		return p.fail(ctx, doc, fmt.Errorf("未生成任何文本分块"))
	}
	log.Infof("[Processor] 步骤5: 分块完成, 共生成 %d 个分块", len(chunks))

	// 6. 向量化并写入索引
	log.Info("[Processor] 步骤6: 向量化并写入向量索引")
	if err := p.store.Add(ctx, chunks); err != nil {
		return p.fail(ctx, doc, fmt.Errorf("写入向量索引失败: %w", err))
	}

	// 7. 生成摘要（失败不阻断，使用兜底文案）
	log.Info("[Processor] 步骤7: 生成文档摘要")
	summary := p.generateSummary(ctx, chunks)

	// 8. 标记完成并落库
	doc.MarkCompleted(len(chunks), summary)
	if err := p.docRepo.Save(ctx, doc); err != nil {
		return doc, fmt.Errorf("%w: 保存文档完成状态失败: %v", apperr.ErrIngestion, err)
	}
	kafka.PublishDocumentEvent(events.DocumentEvent{
		Type:       events.DocumentCompleted,
		DocumentID: docID,
		Filename:   file.Name,
		ChunkCount: len(chunks),
		OccurredAt: time.Now(),
	})
	log.Infof("[Processor] 摄取成功完成, DocumentID: %s, ChunkCount: %d", docID, len(chunks))
	return doc, nil
}

// validate 执行入库前的全部校验，返回识别出的内容类型。
func (p *Processor) validate(file RawFile) (string, error) {
	if strings.TrimSpace(file.Name) == "" {
		return "", apperr.Validationf("文件名不能为空")
	}
	if file.Size <= 0 || len(file.Data) == 0 {
		return "", apperr.Validationf("文件内容为空")
	}
	maxBytes := p.ingestCfg.MaxFileSizeBytes()
	if file.Size > maxBytes {
		return "", apperr.Validationf("文件大小 %d 超过上限 %d 字节", file.Size, maxBytes)
	}
	detected := extract.DetectContentType(file.Name, file.ContentType)
	if !extract.IsSupported(detected) {
		return "", apperr.Validationf("不支持的文件类型: %s", detected)
	}
	return detected, nil
}

// buildChunks 把提取片段切分为带完整元数据的分块。
// chunk_index 在整个文档内全局递增，与片段边界无关。
func (p *Processor) buildChunks(segments []extract.Segment, file RawFile, docID, contentLabel string) ([]model.Chunk, error) {
	uploadTime := time.Now().Format(time.RFC3339)
	var chunks []model.Chunk
	chunkIndex := 0
	for _, segment := range segments {
		for _, text := range SplitText(segment.Text, p.ingestCfg.ChunkSize, p.ingestCfg.ChunkOverlap) {
			md, err := model.NewMetadata(file.Name, docID)
			if err != nil {
				return nil, fmt.Errorf("构造分块元数据失败: %w", err)
			}
			md.Set(model.MetaChunkIndex, chunkIndex)
			md.Set(model.MetaContentType, contentLabel)
			// 片段级定位信息只在提取器给出时携带
			if segment.Page != "" {
				md.SetIfAbsent(model.MetaPage, segment.Page)
			}
			if segment.RowNumber != "" {
				md.SetIfAbsent(model.MetaRowNumber, segment.RowNumber)
			}
			if segment.SheetName != "" {
				md.SetIfAbsent(model.MetaSheetName, segment.SheetName)
			}
			md.Set(model.MetaProcessedAt, time.Now().Format(time.RFC3339))
			md.Set(model.MetaFileSize, file.Size)
			md.Set(model.MetaUploadTime, uploadTime)
			md.Set(model.MetaChunkLength, len([]rune(text)))
			md.Set(model.MetaWordCount, len(strings.Fields(text)))

			chunk, err := model.NewChunk(text, md)
			if err != nil {
				return nil, fmt.Errorf("构造分块失败: %w", err)
			}
			chunks = append(chunks, chunk)
			chunkIndex++
		}
	}
	return chunks, nil
}

// generateSummary 基于前几个分块请求 LLM 生成两句以内的摘要。
// 任何失败都回退到固定模板，摘要永远不会阻断摄取。
func (p *Processor) generateSummary(ctx context.Context, chunks []model.Chunk) string {
	var sample strings.Builder
	for i, chunk := range chunks {
		if i >= 3 || sample.Len() > 2000 {
			break
		}
		sample.WriteString(chunk.Text)
		sample.WriteByte('\n')
	}

	systemPrompt := "You are a helpful assistant that summarizes documents concisely."
	userPrompt := fmt.Sprintf("Please provide a concise summary (maximum 2 sentences) of the following document content:\n\n%s", sample.String())
	summary, err := p.llmClient.Complete(ctx, systemPrompt, userPrompt)
	if err != nil || strings.TrimSpace(summary) == "" {
		log.Warnf("[Processor] 生成摘要失败, 使用兜底文案: %v", err)
		return fmt.Sprintf(summaryFallback, len(chunks))
	}
	return strings.TrimSpace(summary)
}

// fail 把文档记录置为 ERROR 终态并发布事件，返回包装后的摄取错误。
func (p *Processor) fail(ctx context.Context, doc *model.DocumentMetadata, cause error) (*model.DocumentMetadata, error) {
	log.Errorf("[Processor] 摄取失败, DocumentID: %s, Error: %v", doc.DocID(), cause)
	doc.MarkError(cause.Error())
	if err := p.docRepo.Save(ctx, doc); err != nil {
		log.Errorf("[Processor] 保存文档失败状态失败, DocumentID: %s, Error: %v", doc.DocID(), err)
	}
	kafka.PublishDocumentEvent(events.DocumentEvent{
		Type:       events.DocumentError,
		DocumentID: doc.DocID(),
		Filename:   doc.Filename,
		Error:      cause.Error(),
		OccurredAt: time.Now(),
	})
	return doc, fmt.Errorf("%w: %v", apperr.ErrIngestion, cause)
}
