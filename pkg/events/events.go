// Package events defines the document lifecycle events published to Kafka.
package events

import "time"

// 事件类型。每个文档在摄取过程中至多产生一条 created 和一条终态事件。
const (
	DocumentCreated   = "document.created"
	DocumentCompleted = "document.completed"
	DocumentError     = "document.error"
	DocumentDeleted   = "document.deleted"
)

// DocumentEvent represents one document lifecycle transition.
type DocumentEvent struct {
	Type       string    `json:"type"`
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	ChunkCount int       `json:"chunk_count,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
