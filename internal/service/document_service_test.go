package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-chat-go/internal/apperr"
	"rag-chat-go/internal/model"
)

// stubDocRepo 是 DocumentRepository 的内存替身，可注入删除失败。
type stubDocRepo struct {
	docs         map[uint]*model.DocumentMetadata
	deleteErr    error
	deleteAllErr error
}

func newStubDocRepo(docs ...*model.DocumentMetadata) *stubDocRepo {
	r := &stubDocRepo{docs: make(map[uint]*model.DocumentMetadata)}
	for _, d := range docs {
		r.docs[d.ID] = d
	}
	return r
}

func (r *stubDocRepo) Create(_ context.Context, doc *model.DocumentMetadata) error {
	doc.ID = uint(len(r.docs) + 1)
	r.docs[doc.ID] = doc
	return nil
}

func (r *stubDocRepo) Save(_ context.Context, doc *model.DocumentMetadata) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *stubDocRepo) FindByID(_ context.Context, id uint) (*model.DocumentMetadata, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: 文档 %d 不存在", apperr.ErrNotFound, id)
	}
	return doc, nil
}

func (r *stubDocRepo) FindAll(_ context.Context) ([]model.DocumentMetadata, error) {
	var out []model.DocumentMetadata
	for _, doc := range r.docs {
		out = append(out, *doc)
	}
	return out, nil
}

func (r *stubDocRepo) Delete(_ context.Context, id uint) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.docs, id)
	return nil
}

func (r *stubDocRepo) DeleteAll(_ context.Context) error {
	if r.deleteAllErr != nil {
		return r.deleteAllErr
	}
	r.docs = make(map[uint]*model.DocumentMetadata)
	return nil
}

func completedDoc(id uint, filename string) *model.DocumentMetadata {
	doc := &model.DocumentMetadata{
		ID:          id,
		Filename:    filename,
		ContentType: "text/plain",
		FileSize:    42,
		Status:      model.StatusProcessing,
	}
	doc.MarkCompleted(3, "summary")
	return doc
}

func TestDeleteDocumentNotFound(t *testing.T) {
	svc := NewDocumentService(nil, newStubDocRepo(), &stubSearchStore{})

	err := svc.Delete(context.Background(), 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteDocumentRemovesVectorsFirst(t *testing.T) {
	repo := newStubDocRepo(completedDoc(1, "a.txt"))
	store := &stubSearchStore{}
	svc := NewDocumentService(nil, repo, store)

	require.NoError(t, svc.Delete(context.Background(), 1))
	require.Len(t, store.deleted, 1)
	assert.Equal(t, []string{"1"}, store.deleted[0])
	_, err := repo.FindByID(context.Background(), 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteDocumentVectorFailureKeepsMetadata(t *testing.T) {
	repo := newStubDocRepo(completedDoc(1, "a.txt"))
	store := &stubSearchStore{deleteErr: fmt.Errorf("backend down")}
	svc := NewDocumentService(nil, repo, store)

	err := svc.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrConsistency, "向量删除失败时两边都完好, 不是一致性问题")

	// 元数据保持原样，可以重试
	_, findErr := repo.FindByID(context.Background(), 1)
	assert.NoError(t, findErr)
}

func TestDeleteDocumentMetadataFailureIsConsistencyError(t *testing.T) {
	repo := newStubDocRepo(completedDoc(1, "a.txt"))
	repo.deleteErr = fmt.Errorf("db down")
	store := &stubSearchStore{}
	svc := NewDocumentService(nil, repo, store)

	err := svc.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConsistency)
	assert.Len(t, store.deleted, 1, "向量侧删除已经发生")
}

func TestDeleteAllClearsBothSides(t *testing.T) {
	repo := newStubDocRepo(completedDoc(1, "a.txt"), completedDoc(2, "b.txt"))
	store := &stubSearchStore{}
	svc := NewDocumentService(nil, repo, store)

	require.NoError(t, svc.DeleteAll(context.Background()))
	assert.True(t, store.cleared)
	docs, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDeleteAllMetadataFailureIsConsistencyError(t *testing.T) {
	repo := newStubDocRepo(completedDoc(1, "a.txt"))
	repo.deleteAllErr = fmt.Errorf("db down")
	svc := NewDocumentService(nil, repo, &stubSearchStore{})

	err := svc.DeleteAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConsistency)
}

func TestListDocuments(t *testing.T) {
	repo := newStubDocRepo(completedDoc(1, "a.txt"))
	svc := NewDocumentService(nil, repo, &stubSearchStore{})

	docs, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a.txt", docs[0].Filename)
	assert.Equal(t, model.StatusCompleted, docs[0].Status)
	assert.Equal(t, 3, docs[0].ChunkCount)
}
