// Package vectorstore 负责分块向量的存储与相似度检索。
// 提供内存与 pgvector 两种后端，通过配置在进程启动时选定一种。
package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rag-chat-go/internal/config"
	"rag-chat-go/internal/model"
	"rag-chat-go/pkg/embedding"
)

// 后端标识，对应配置项 vector_store.backend。
const (
	BackendMemory   = "memory"
	BackendPgVector = "pgvector"
)

// Store 是向量索引的统一契约。两种后端对外行为一致：
// 记录以 document_id 与 chunk_index 组合为身份，重复写入同一位置为覆盖；
// Search 返回按相似度降序、同分按插入顺序排列的命中；
// Delete 按 document_id 集合删除，未命中任何记录也不算错误。
type Store interface {
	Add(ctx context.Context, chunks []model.Chunk) error
	Search(ctx context.Context, query string, topK int, threshold float64) ([]model.SearchResult, error)
	Delete(ctx context.Context, documentIDs []string) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

// New 按配置构造向量索引后端。pgvector 后端复用元数据库的 gorm 连接。
func New(cfg config.VectorStoreConfig, embCfg config.EmbeddingConfig, embedder embedding.Client, db *gorm.DB) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(embedder), nil
	case BackendPgVector:
		if db == nil {
			return nil, fmt.Errorf("vectorstore: pgvector 后端需要数据库连接")
		}
		return NewPgVectorStore(db, embedder, embCfg.Dimensions)
	default:
		return nil, fmt.Errorf("vectorstore: 未知的后端 %q", cfg.Backend)
	}
}

// recordID 计算一条向量记录的稳定身份：document_id 与 chunk_index 的组合。
// 缺少 document_id 的分块退化为随机身份，只能追加、无法覆盖。
func recordID(md model.Metadata) string {
	docID := md.DocumentID()
	if docID == "" {
		return uuid.NewString()
	}
	return fmt.Sprintf("%s_%d", docID, md.GetInt(model.MetaChunkIndex))
}
