package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"rag-chat-go/internal/model"
	"rag-chat-go/pkg/embedding"
	"rag-chat-go/pkg/log"
)

// PgVectorStore 是基于 PostgreSQL + pgvector 扩展的持久化向量索引。
// 相似度计算与阈值过滤下推到数据库，Go 侧只负责向量化与结果组装。
type PgVectorStore struct {
	db         *gorm.DB
	embedder   embedding.Client
	dimensions int

	driftCount atomic.Uint64
}

// NewPgVectorStore 构造 pgvector 后端并保证表结构就绪。
// dimensions 决定 vector 列的宽度，建表后不可变更。
func NewPgVectorStore(db *gorm.DB, embedder embedding.Client, dimensions int) (*PgVectorStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("vectorstore: pgvector 后端需要配置 embedding.dimensions")
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, fmt.Errorf("启用 pgvector 扩展失败: %w", err)
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS document_vectors (
		id          bigserial PRIMARY KEY,
		document_id text NOT NULL,
		chunk_index integer NOT NULL,
		content     text NOT NULL,
		embedding   vector(%d) NOT NULL,
		metadata    jsonb,
		created_at  timestamptz NOT NULL DEFAULT now(),
		UNIQUE (document_id, chunk_index)
	)`, dimensions)
	if err := db.Exec(ddl).Error; err != nil {
		return nil, fmt.Errorf("创建 document_vectors 表失败: %w", err)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_document_vectors_document_id ON document_vectors (document_id)").Error; err != nil {
		return nil, fmt.Errorf("创建 document_id 索引失败: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_document_vectors_embedding ON document_vectors USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)").Error; err != nil {
		return nil, fmt.Errorf("创建向量索引失败: %w", err)
	}

	return &PgVectorStore{db: db, embedder: embedder, dimensions: dimensions}, nil
}

// Add 将分块批量写入。向量先在事务外计算并校验维度，
// 再在单个事务内逐条 upsert，批次要么全部落库要么全部回滚。
func (s *PgVectorStore) Add(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	vectors := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		vec, err := s.embedder.CreateEmbedding(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("向量化分块失败: %w", err)
		}
		if len(vec) != s.dimensions {
			return fmt.Errorf("向量维度不一致: 期望 %d, 实际 %d", s.dimensions, len(vec))
		}
		vectors[i] = vec
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, chunk := range chunks {
			docID := chunk.Metadata.DocumentID()
			if docID == "" {
				docID = uuid.NewString()
			}
			mdJSON, err := json.Marshal(chunk.Metadata)
			if err != nil {
				return fmt.Errorf("序列化元数据失败: %w", err)
			}

			err = tx.Exec(`INSERT INTO document_vectors (document_id, chunk_index, content, embedding, metadata)
				VALUES (?, ?, ?, ?, ?::jsonb)
				ON CONFLICT (document_id, chunk_index)
				DO UPDATE SET content = EXCLUDED.content, embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata`,
				docID, chunk.Metadata.GetInt(model.MetaChunkIndex), chunk.Text,
				pgvector.NewVector(vectors[i]), string(mdJSON)).Error
			if err != nil {
				return fmt.Errorf("写入向量记录失败: %w", err)
			}
		}
		return nil
	})
}

// vectorRow 是检索 SQL 的扫描目标。
type vectorRow struct {
	Content  string
	Metadata []byte
	Score    float64
}

// Search 将阈值过滤与排序下推到数据库。
// `embedding <=> ?` 为余弦距离，相似度即 1 - 距离；
// 同分命中按自增主键（插入顺序）排序。
func (s *PgVectorStore) Search(ctx context.Context, query string, topK int, threshold float64) ([]model.SearchResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	queryVec, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("向量化查询失败: %w", err)
	}
	if len(queryVec) != s.dimensions {
		s.driftCount.Add(1)
		log.Warnf("[VectorStore] 维度漂移: 查询维度 %d, 索引维度 %d", len(queryVec), s.dimensions)
		return nil, nil
	}

	qv := pgvector.NewVector(queryVec)
	var rows []vectorRow
	err = s.db.WithContext(ctx).Raw(`SELECT content, metadata, 1 - (embedding <=> ?) AS score
		FROM document_vectors
		WHERE 1 - (embedding <=> ?) >= ?
		ORDER BY embedding <=> ?, id
		LIMIT ?`,
		qv, qv, threshold, qv, topK).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("向量检索失败: %w", err)
	}

	results := make([]model.SearchResult, 0, len(rows))
	for _, row := range rows {
		var md model.Metadata
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &md); err != nil {
				return nil, fmt.Errorf("反序列化元数据失败: %w", err)
			}
		}
		results = append(results, model.SearchResult{
			Chunk: model.Chunk{Text: row.Content, Metadata: md},
			Score: row.Score,
		})
	}
	return results, nil
}

// Delete 删除属于给定文档集合的全部记录，未命中任何行也不算错误。
func (s *PgVectorStore) Delete(ctx context.Context, documentIDs []string) error {
	if len(documentIDs) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Exec("DELETE FROM document_vectors WHERE document_id IN ?", documentIDs).Error
	if err != nil {
		return fmt.Errorf("删除向量记录失败: %w", err)
	}
	return nil
}

// Clear 清空全部向量记录。表结构与维度保持不变。
func (s *PgVectorStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec("DELETE FROM document_vectors").Error; err != nil {
		return fmt.Errorf("清空向量记录失败: %w", err)
	}
	return nil
}

// Count 返回索引中的记录数。
func (s *PgVectorStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Raw("SELECT COUNT(*) FROM document_vectors").Scan(&count).Error; err != nil {
		return 0, fmt.Errorf("统计向量记录失败: %w", err)
	}
	return count, nil
}

// DriftCount 返回检索时观测到的维度漂移次数，用于诊断。
func (s *PgVectorStore) DriftCount() uint64 {
	return s.driftCount.Load()
}
