package vectorstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-chat-go/internal/model"
)

// stubEmbedder 按文本查表返回固定向量，保证测试可复现。
type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) CreateEmbedding(_ context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("没有预置向量: %q", text)
}

func mustChunk(t *testing.T, docID string, chunkIndex int, text string) model.Chunk {
	t.Helper()
	md, err := model.NewMetadata("test.txt", docID)
	require.NoError(t, err)
	md.Set(model.MetaChunkIndex, chunkIndex)
	chunk, err := model.NewChunk(text, md)
	require.NoError(t, err)
	return chunk
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// 零向量与维度不一致都退化为 0.0
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
}

func TestMemoryStoreAddAndCount(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(&stubEmbedder{vectors: map[string][]float32{
		"alpha": {1, 0, 0},
		"beta":  {0, 1, 0},
	}})

	err := store.Add(ctx, []model.Chunk{
		mustChunk(t, "1", 0, "alpha"),
		mustChunk(t, "1", 1, "beta"),
	})
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMemoryStoreOverwriteSamePosition(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(&stubEmbedder{vectors: map[string][]float32{
		"old text": {1, 0},
		"new text": {1, 0},
		"query":    {1, 0},
	}})

	require.NoError(t, store.Add(ctx, []model.Chunk{mustChunk(t, "1", 0, "old text")}))
	require.NoError(t, store.Add(ctx, []model.Chunk{mustChunk(t, "1", 0, "new text")}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "同一位置的重复写入应为覆盖")

	results, err := store.Search(ctx, "query", 10, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new text", results[0].Chunk.Text)
}

func TestMemoryStoreSearchThresholdInclusive(t *testing.T) {
	ctx := context.Background()
	// "half" 与查询向量的余弦相似度恰好为 0.6
	store := NewMemoryStore(&stubEmbedder{vectors: map[string][]float32{
		"exact": {1, 0},
		"half":  {0.6, 0.8},
		"below": {0, 1},
		"query": {1, 0},
	}})
	require.NoError(t, store.Add(ctx, []model.Chunk{
		mustChunk(t, "1", 0, "exact"),
		mustChunk(t, "1", 1, "half"),
		mustChunk(t, "1", 2, "below"),
	}))

	results, err := store.Search(ctx, "query", 10, 0.6)
	require.NoError(t, err)
	require.Len(t, results, 2, "阈值为闭区间，恰好等于阈值的命中应保留")
	assert.Equal(t, "exact", results[0].Chunk.Text)
	assert.Equal(t, "half", results[1].Chunk.Text)
}

func TestMemoryStoreSearchTopKCap(t *testing.T) {
	ctx := context.Background()
	vectors := map[string][]float32{"query": {1, 0}}
	var chunks []model.Chunk
	for i := 0; i < 10; i++ {
		text := fmt.Sprintf("chunk-%d", i)
		vectors[text] = []float32{1, 0}
		chunks = append(chunks, mustChunk(t, "1", i, text))
	}
	store := NewMemoryStore(&stubEmbedder{vectors: vectors})
	require.NoError(t, store.Add(ctx, chunks))

	results, err := store.Search(ctx, "query", 3, 0.0)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	// topK 为 0 时不返回任何命中
	results, err = store.Search(ctx, "query", 0, 0.0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStoreSearchTieBreakInsertionOrder(t *testing.T) {
	ctx := context.Background()
	// 三条记录与查询同分，期望按插入顺序返回
	store := NewMemoryStore(&stubEmbedder{vectors: map[string][]float32{
		"first":  {1, 0},
		"second": {1, 0},
		"third":  {1, 0},
		"query":  {1, 0},
	}})
	require.NoError(t, store.Add(ctx, []model.Chunk{
		mustChunk(t, "1", 0, "first"),
		mustChunk(t, "1", 1, "second"),
		mustChunk(t, "1", 2, "third"),
	}))

	results, err := store.Search(ctx, "query", 10, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Chunk.Text)
	assert.Equal(t, "second", results[1].Chunk.Text)
	assert.Equal(t, "third", results[2].Chunk.Text)
}

func TestMemoryStoreSearchEmptyIndex(t *testing.T) {
	store := NewMemoryStore(&stubEmbedder{vectors: map[string][]float32{
		"query": {1, 0},
	}})
	results, err := store.Search(context.Background(), "query", 5, 0.3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(&stubEmbedder{vectors: map[string][]float32{
		"a": {1, 0}, "b": {1, 0}, "c": {0, 1},
	}})
	require.NoError(t, store.Add(ctx, []model.Chunk{
		mustChunk(t, "1", 0, "a"),
		mustChunk(t, "1", 1, "b"),
		mustChunk(t, "2", 0, "c"),
	}))

	require.NoError(t, store.Delete(ctx, []string{"1"}))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// 重复删除与删除不存在的文档均为幂等空操作
	require.NoError(t, store.Delete(ctx, []string{"1", "does-not-exist"}))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStoreClearResetsDimension(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(&stubEmbedder{vectors: map[string][]float32{
		"three": {1, 0, 0},
		"two":   {1, 0},
	}})
	require.NoError(t, store.Add(ctx, []model.Chunk{mustChunk(t, "1", 0, "three")}))

	// 维度在首次写入后固定，不一致的批次被整体拒绝
	err := store.Add(ctx, []model.Chunk{mustChunk(t, "2", 0, "two")})
	require.Error(t, err)

	require.NoError(t, store.Clear(ctx))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// 清空后维度重置，可以接受新的维度
	require.NoError(t, store.Add(ctx, []model.Chunk{mustChunk(t, "2", 0, "two")}))
}

func TestMemoryStoreDimensionDrift(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(&stubEmbedder{vectors: map[string][]float32{
		"doc":   {1, 0, 0},
		"query": {1, 0},
	}})
	require.NoError(t, store.Add(ctx, []model.Chunk{mustChunk(t, "1", 0, "doc")}))

	// 查询维度与索引不一致时相似度按 0.0 处理，并记录漂移
	results, err := store.Search(ctx, "query", 5, 0.3)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, uint64(1), store.DriftCount())

	// 阈值为 0 时，0 分命中仍然保留
	results, err = store.Search(ctx, "query", 5, 0.0)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 0.0, results[0].Score)
}

func TestMemoryStoreEmbedderFailure(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(&stubEmbedder{vectors: map[string][]float32{}})

	err := store.Add(ctx, []model.Chunk{mustChunk(t, "1", 0, "unknown")})
	require.Error(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "向量化失败的批次不应写入任何记录")
}
