// Package llmtest 提供测试用的 LLM 客户端替身。
package llmtest

import (
	"context"

	"github.com/gorilla/websocket"

	"rag-chat-go/pkg/llm"
)

// StubClient 实现 llm.Client，按预置内容响应。
type StubClient struct {
	CompleteResponse string
	CompleteErr      error
	// 记录每次 Complete 收到的 user 提示，便于断言
	CompletePrompts []string

	StreamChunks []string
	StreamErr    error
}

func (s *StubClient) Complete(_ context.Context, _ string, userPrompt string) (string, error) {
	s.CompletePrompts = append(s.CompletePrompts, userPrompt)
	if s.CompleteErr != nil {
		return "", s.CompleteErr
	}
	return s.CompleteResponse, nil
}

func (s *StubClient) StreamChatMessages(_ context.Context, _ []llm.Message, _ *llm.GenerationParams, writer llm.MessageWriter) error {
	if s.StreamErr != nil {
		return s.StreamErr
	}
	for _, chunk := range s.StreamChunks {
		if err := writer.WriteMessage(websocket.TextMessage, []byte(chunk)); err != nil {
			return err
		}
	}
	return nil
}
