package model

import "fmt"

// Chunk 是一个不可变的可检索文本单元，携带来源信息。
type Chunk struct {
	Text     string
	Metadata Metadata
}

// NewChunk 构造一个 Chunk。文本不能为空，元数据必须携带必填键。
func NewChunk(text string, md Metadata) (Chunk, error) {
	if text == "" {
		return Chunk{}, fmt.Errorf("chunk: 文本不能为空")
	}
	if md.Source() == "" || md.DocumentID() == "" {
		return Chunk{}, fmt.Errorf("chunk: 元数据缺少必填键 %s/%s", MetaSource, MetaDocumentID)
	}
	return Chunk{Text: text, Metadata: md}, nil
}

// SearchResult 是一条检索命中，Score 为查询向量与分块向量的余弦相似度。
type SearchResult struct {
	Chunk Chunk
	Score float64
}
