package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetadataRequiredKeys(t *testing.T) {
	_, err := NewMetadata("", "1")
	assert.Error(t, err)

	_, err = NewMetadata("a.txt", "")
	assert.Error(t, err)

	md, err := NewMetadata("a.txt", "1")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", md.Source())
	assert.Equal(t, "1", md.DocumentID())
}

func TestMetadataPreservesInsertionOrder(t *testing.T) {
	md, err := NewMetadata("a.txt", "1")
	require.NoError(t, err)
	md.Set(MetaChunkIndex, 0)
	md.Set(MetaPage, "3")
	md.Set(MetaWordCount, 42)

	assert.Equal(t, []string{MetaSource, MetaDocumentID, MetaChunkIndex, MetaPage, MetaWordCount}, md.Keys())

	// 覆盖已有键不改变其位置
	md.Set(MetaChunkIndex, 7)
	assert.Equal(t, []string{MetaSource, MetaDocumentID, MetaChunkIndex, MetaPage, MetaWordCount}, md.Keys())
	assert.Equal(t, 7, md.GetInt(MetaChunkIndex))
}

func TestMetadataSetIfAbsent(t *testing.T) {
	md, err := NewMetadata("a.txt", "1")
	require.NoError(t, err)
	md.Set(MetaPage, "3")

	md.SetIfAbsent(MetaPage, "9")
	assert.Equal(t, "3", md.GetString(MetaPage), "已存在的键不应被覆盖")

	md.SetIfAbsent(MetaSheetName, "Sheet1")
	assert.Equal(t, "Sheet1", md.GetString(MetaSheetName))
}

func TestMetadataJSONRoundTrip(t *testing.T) {
	md, err := NewMetadata("a.txt", "1")
	require.NoError(t, err)
	md.Set(MetaChunkIndex, 4)
	md.Set(MetaPage, "2")
	md.Set(MetaFileSize, int64(1024))

	data, err := json.Marshal(md)
	require.NoError(t, err)

	// 序列化保持插入顺序
	assert.Equal(t, `{"source":"a.txt","document_id":"1","chunk_index":4,"page":"2","file_size":1024}`, string(data))

	var restored Metadata
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, md.Keys(), restored.Keys())
	assert.Equal(t, "a.txt", restored.Source())
	assert.Equal(t, "1", restored.DocumentID())
	assert.Equal(t, 4, restored.GetInt(MetaChunkIndex))
	assert.Equal(t, 1024, restored.GetInt(MetaFileSize))
}

func TestMetadataCloneIsIndependent(t *testing.T) {
	md, err := NewMetadata("a.txt", "1")
	require.NoError(t, err)
	clone := md.Clone()
	clone.Set(MetaPage, "5")

	_, ok := md.Get(MetaPage)
	assert.False(t, ok, "修改副本不应影响原件")
	assert.Equal(t, "5", clone.GetString(MetaPage))
}

func TestNewChunkValidation(t *testing.T) {
	md, err := NewMetadata("a.txt", "1")
	require.NoError(t, err)

	_, err = NewChunk("", md)
	assert.Error(t, err)

	chunk, err := NewChunk("content", md)
	require.NoError(t, err)
	assert.Equal(t, "content", chunk.Text)
}
