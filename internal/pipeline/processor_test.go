package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-chat-go/internal/apperr"
	"rag-chat-go/internal/config"
	"rag-chat-go/internal/extract"
	"rag-chat-go/internal/llmtest"
	"rag-chat-go/internal/model"
)

// stubExtractor 返回预置的片段，或模拟提取失败。
type stubExtractor struct {
	segments []extract.Segment
	label    string
	err      error
}

func (s *stubExtractor) Extract(_ context.Context, _ []byte, _ string, _ string) ([]extract.Segment, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return s.segments, s.label, nil
}

// stubStore 记录写入的分块，或模拟索引失败。
type stubStore struct {
	added  []model.Chunk
	addErr error
}

func (s *stubStore) Add(_ context.Context, chunks []model.Chunk) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.added = append(s.added, chunks...)
	return nil
}

func (s *stubStore) Search(_ context.Context, _ string, _ int, _ float64) ([]model.SearchResult, error) {
	return nil, nil
}
func (s *stubStore) Delete(_ context.Context, _ []string) error { return nil }
func (s *stubStore) Clear(_ context.Context) error              { return nil }
func (s *stubStore) Count(_ context.Context) (int64, error)     { return int64(len(s.added)), nil }

// memDocRepo 是 DocumentRepository 的内存实现。
type memDocRepo struct {
	docs   map[uint]*model.DocumentMetadata
	nextID uint
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{docs: make(map[uint]*model.DocumentMetadata), nextID: 1}
}

func (r *memDocRepo) Create(_ context.Context, doc *model.DocumentMetadata) error {
	doc.ID = r.nextID
	r.nextID++
	stored := *doc
	r.docs[doc.ID] = &stored
	return nil
}

func (r *memDocRepo) Save(_ context.Context, doc *model.DocumentMetadata) error {
	stored := *doc
	r.docs[doc.ID] = &stored
	return nil
}

func (r *memDocRepo) FindByID(_ context.Context, id uint) (*model.DocumentMetadata, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: 文档 %d 不存在", apperr.ErrNotFound, id)
	}
	return doc, nil
}

func (r *memDocRepo) FindAll(_ context.Context) ([]model.DocumentMetadata, error) {
	var out []model.DocumentMetadata
	for _, doc := range r.docs {
		out = append(out, *doc)
	}
	return out, nil
}

func (r *memDocRepo) Delete(_ context.Context, id uint) error {
	delete(r.docs, id)
	return nil
}

func (r *memDocRepo) DeleteAll(_ context.Context) error {
	r.docs = make(map[uint]*model.DocumentMetadata)
	return nil
}

func newTestProcessor(extractor extract.Extractor, store *stubStore, llmClient *llmtest.StubClient, repo *memDocRepo) *Processor {
	return NewProcessor(extractor, store, llmClient, repo, config.IngestConfig{
		MaxFileSizeMB: 1,
		ChunkSize:     20,
		ChunkOverlap:  0,
	})
}

func textFile(name, content string) RawFile {
	return RawFile{
		Name:        name,
		ContentType: "text/plain",
		Size:        int64(len(content)),
		Data:        []byte(content),
	}
}

func TestIngestValidationRejectsBeforeAnyWrite(t *testing.T) {
	ctx := context.Background()
	repo := newMemDocRepo()
	store := &stubStore{}
	p := newTestProcessor(&stubExtractor{}, store, &llmtest.StubClient{}, repo)

	cases := []struct {
		name string
		file RawFile
	}{
		{"空文件名", RawFile{Name: "  ", ContentType: "text/plain", Size: 4, Data: []byte("data")}},
		{"空内容", RawFile{Name: "a.txt", ContentType: "text/plain", Size: 0}},
		{"超过大小上限", RawFile{Name: "a.txt", ContentType: "text/plain", Size: 2 * 1024 * 1024, Data: []byte("x")}},
		{"不支持的类型", RawFile{Name: "a.zip", ContentType: "application/zip", Size: 4, Data: []byte("data")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := p.Ingest(ctx, tc.file)
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err), "校验失败应返回校验错误: %v", err)
			assert.Nil(t, doc)
		})
	}
	assert.Empty(t, repo.docs, "校验失败不应留下任何文档记录")
	assert.Empty(t, store.added, "校验失败不应写入任何向量")
}

func TestIngestSuccess(t *testing.T) {
	ctx := context.Background()
	repo := newMemDocRepo()
	store := &stubStore{}
	llmClient := &llmtest.StubClient{CompleteResponse: "A short summary."}
	extractor := &stubExtractor{
		segments: []extract.Segment{{Text: strings.Repeat("hello world ", 5)}},
		label:    "text",
	}
	p := newTestProcessor(extractor, store, llmClient, repo)

	doc, err := p.Ingest(ctx, textFile("notes.txt", "ignored, extractor is stubbed"))
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, model.StatusCompleted, doc.Status)
	assert.Equal(t, len(store.added), doc.ChunkCount)
	assert.Equal(t, "A short summary.", doc.Summary)
	assert.NotNil(t, doc.ProcessedAt)

	// 分块元数据：必填键齐全，chunk_index 全局递增
	require.NotEmpty(t, store.added)
	for i, chunk := range store.added {
		assert.Equal(t, "notes.txt", chunk.Metadata.Source())
		assert.Equal(t, doc.DocID(), chunk.Metadata.DocumentID())
		assert.Equal(t, i, chunk.Metadata.GetInt(model.MetaChunkIndex))
		assert.Equal(t, "text", chunk.Metadata.GetString(model.MetaContentType))
	}

	saved, err := repo.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, saved.Status)
}

func TestIngestSummaryFallback(t *testing.T) {
	ctx := context.Background()
	repo := newMemDocRepo()
	store := &stubStore{}
	llmClient := &llmtest.StubClient{CompleteErr: fmt.Errorf("%w: llm unavailable", apperr.ErrGeneration)}
	extractor := &stubExtractor{segments: []extract.Segment{{Text: "short text"}}, label: "text"}
	p := newTestProcessor(extractor, store, llmClient, repo)

	doc, err := p.Ingest(ctx, textFile("notes.txt", "content"))
	require.NoError(t, err, "摘要失败不应阻断摄取")
	assert.Equal(t, model.StatusCompleted, doc.Status)
	assert.Equal(t, fmt.Sprintf("Document containing %d sections with various content types", doc.ChunkCount), doc.Summary)
}

func TestIngestExtractionFailureMarksError(t *testing.T) {
	ctx := context.Background()
	repo := newMemDocRepo()
	store := &stubStore{}
	extractor := &stubExtractor{err: fmt.Errorf("%w: 文件已损坏", apperr.ErrExtraction)}
	p := newTestProcessor(extractor, store, &llmtest.StubClient{}, repo)

	doc, err := p.Ingest(ctx, textFile("broken.txt", "content"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrIngestion)
	require.NotNil(t, doc)
	assert.Equal(t, model.StatusError, doc.Status)
	assert.NotEmpty(t, doc.ErrorMessage)
	assert.Zero(t, doc.ChunkCount)

	saved, findErr := repo.FindByID(ctx, doc.ID)
	require.NoError(t, findErr)
	assert.Equal(t, model.StatusError, saved.Status, "失败状态应已落库")
}

func TestIngestStoreFailureMarksError(t *testing.T) {
	ctx := context.Background()
	repo := newMemDocRepo()
	store := &stubStore{addErr: fmt.Errorf("%w: embedding api down", apperr.ErrEmbedding)}
	extractor := &stubExtractor{segments: []extract.Segment{{Text: "some text"}}, label: "text"}
	p := newTestProcessor(extractor, store, &llmtest.StubClient{}, repo)

	doc, err := p.Ingest(ctx, textFile("notes.txt", "content"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrIngestion)
	assert.Equal(t, model.StatusError, doc.Status)
}

func TestIngestEmptyExtractionMarksError(t *testing.T) {
	ctx := context.Background()
	repo := newMemDocRepo()
	extractor := &stubExtractor{segments: nil, label: "text"}
	p := newTestProcessor(extractor, &stubStore{}, &llmtest.StubClient{}, repo)

	doc, err := p.Ingest(ctx, textFile("empty.txt", "content"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrIngestion)
	assert.Equal(t, model.StatusError, doc.Status)
}
