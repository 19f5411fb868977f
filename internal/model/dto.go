package model

import "time"

// DocumentDTO 定义了返回给前端的文档记录结构。
type DocumentDTO struct {
	ID           uint       `json:"id"`
	Filename     string     `json:"filename"`
	ContentType  string     `json:"contentType"`
	FileSize     int64      `json:"fileSize"`
	Status       string     `json:"status"`
	ChunkCount   int        `json:"chunkCount"`
	Summary      string     `json:"summary,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	UploadedAt   time.Time  `json:"uploadedAt"`
	ProcessedAt  *time.Time `json:"processedAt,omitempty"`
}

// NewDocumentDTO 由 ORM 模型构造 DTO。
func NewDocumentDTO(d *DocumentMetadata) DocumentDTO {
	return DocumentDTO{
		ID:           d.ID,
		Filename:     d.Filename,
		ContentType:  d.ContentType,
		FileSize:     d.FileSize,
		Status:       d.Status,
		ChunkCount:   d.ChunkCount,
		Summary:      d.Summary,
		ErrorMessage: d.ErrorMessage,
		UploadedAt:   d.UploadedAt,
		ProcessedAt:  d.ProcessedAt,
	}
}

// UploadResponseDTO 定义了文档上传成功后的响应结构。
type UploadResponseDTO struct {
	DocumentID string `json:"documentId"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunkCount"`
	Message    string `json:"message"`
}

// QueryRequestDTO 定义了检索问答请求的结构。
type QueryRequestDTO struct {
	Question string `json:"question" binding:"required"`
	TopK     *int   `json:"topK,omitempty"`
}

// QueryResponseDTO 定义了检索问答的响应结构。
type QueryResponseDTO struct {
	Answer    string        `json:"answer"`
	Question  string        `json:"question"`
	Citations []CitationDTO `json:"citations"`
}

// CitationDTO 是附在回答后的引用记录，指回生成回答时使用的源分块。
type CitationDTO struct {
	Source    string  `json:"source"`
	Content   string  `json:"content"`
	Page      string  `json:"page,omitempty"`
	Relevance float64 `json:"relevance"`
}
