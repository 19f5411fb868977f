package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"rag-chat-go/internal/model"
	"rag-chat-go/pkg/embedding"
	"rag-chat-go/pkg/log"
)

// memoryRecord 是内存后端的一条向量记录。
type memoryRecord struct {
	docID  string
	chunk  model.Chunk
	vector []float32
}

// MemoryStore 是进程内的向量索引，适合开发环境与测试。
// 记录按插入顺序维护，覆盖写入保持原有位置，保证同分命中的排序稳定。
type MemoryStore struct {
	embedder embedding.Client

	mu        sync.RWMutex
	records   map[string]*memoryRecord
	order     []string // 记录 ID 的插入顺序
	dimension int      // 首次写入时固定，0 表示尚未确定

	driftCount atomic.Uint64
}

// NewMemoryStore 构造一个空的内存向量索引。
func NewMemoryStore(embedder embedding.Client) *MemoryStore {
	return &MemoryStore{
		embedder: embedder,
		records:  make(map[string]*memoryRecord),
	}
}

// Add 将分块批量写入索引。所有向量先在锁外计算完毕，
// 再统一校验维度并提交，避免写入一半的批次。
func (s *MemoryStore) Add(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	vectors := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		vec, err := s.embedder.CreateEmbedding(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("向量化分块失败: %w", err)
		}
		vectors[i] = vec
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dimension
	if dim == 0 {
		dim = len(vectors[0])
	}
	for _, vec := range vectors {
		if len(vec) != dim {
			return fmt.Errorf("向量维度不一致: 期望 %d, 实际 %d", dim, len(vec))
		}
	}
	s.dimension = dim

	for i, chunk := range chunks {
		id := recordID(chunk.Metadata)
		rec := &memoryRecord{
			docID:  chunk.Metadata.DocumentID(),
			chunk:  chunk,
			vector: vectors[i],
		}
		if _, exists := s.records[id]; !exists {
			s.order = append(s.order, id)
		}
		s.records[id] = rec
	}
	return nil
}

// Search 将查询向量化后与全部记录比较，返回相似度不低于阈值的前 topK 条。
// 同分命中保持插入顺序。
func (s *MemoryStore) Search(ctx context.Context, query string, topK int, threshold float64) ([]model.SearchResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	queryVec, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("向量化查询失败: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []model.SearchResult
	for _, id := range s.order {
		rec := s.records[id]
		if len(rec.vector) != len(queryVec) {
			s.driftCount.Add(1)
			log.Warnf("[VectorStore] 维度漂移: 记录 %s 维度 %d, 查询维度 %d", id, len(rec.vector), len(queryVec))
		}
		score := cosineSimilarity(queryVec, rec.vector)
		if score >= threshold {
			results = append(results, model.SearchResult{Chunk: rec.chunk, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Delete 删除属于给定文档集合的全部记录。文档无对应记录时为幂等空操作。
func (s *MemoryStore) Delete(ctx context.Context, documentIDs []string) error {
	if len(documentIDs) == 0 {
		return nil
	}
	targets := make(map[string]struct{}, len(documentIDs))
	for _, id := range documentIDs {
		targets[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	for _, id := range s.order {
		rec := s.records[id]
		if _, hit := targets[rec.docID]; hit {
			delete(s.records, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return nil
}

// Clear 清空索引。维度随之重置，下一次写入重新确定。
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*memoryRecord)
	s.order = nil
	s.dimension = 0
	return nil
}

// Count 返回索引中的记录数。
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.order)), nil
}

// DriftCount 返回检索时观测到的维度漂移次数，用于诊断。
func (s *MemoryStore) DriftCount() uint64 {
	return s.driftCount.Load()
}
