// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"strings"

	"rag-chat-go/internal/apperr"
	"rag-chat-go/internal/config"
	"rag-chat-go/internal/model"
	"rag-chat-go/internal/vectorstore"
	"rag-chat-go/pkg/llm"
	"rag-chat-go/pkg/log"
)

// 查询编排的固定参数与文案。命中为空与检索/生成失败是两种不同的回答，
// 前者是正常结果，后者是降级。
const (
	maxQuestionRunes   = 1000
	citationExcerptMax = 300

	noResultsAnswer = "I couldn't find relevant information in the uploaded documents to answer your question. Please make sure you have uploaded relevant documents or try rephrasing your question."
	degradedAnswer  = "I apologize, but I encountered an error while processing your question. Please try again."

	answerSystemPrompt = "You are a helpful assistant that answers questions based on the provided context from uploaded documents. Use only the information from the context to answer. If the context does not contain enough information, say so clearly."
)

// RAGService 定义了检索问答的接口。
type RAGService interface {
	Query(ctx context.Context, req model.QueryRequestDTO) (*model.QueryResponseDTO, error)
}

type ragService struct {
	store     vectorstore.Store
	llmClient llm.Client
	ragCfg    config.RAGConfig
}

// NewRAGService 创建一个新的 RAGService 实例。
func NewRAGService(store vectorstore.Store, llmClient llm.Client, ragCfg config.RAGConfig) RAGService {
	return &ragService{
		store:     store,
		llmClient: llmClient,
		ragCfg:    ragCfg,
	}
}

// Query 执行一次检索问答。
// 校验失败同步返回错误；校验之后的任何失败都降级为固定的道歉回答，
// 调用方永远能拿到一个可用的响应。
func (s *ragService) Query(ctx context.Context, req model.QueryRequestDTO) (*model.QueryResponseDTO, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, apperr.Validationf("问题不能为空")
	}
	if len([]rune(question)) > maxQuestionRunes {
		return nil, apperr.Validationf("问题长度超过 %d 字符上限", maxQuestionRunes)
	}

	topK := s.ragCfg.TopK
	if req.TopK != nil && *req.TopK > 0 {
		topK = *req.TopK
	}

	log.Infof("[RAG] 开始检索, topK: %d, threshold: %.2f", topK, s.ragCfg.SimilarityThreshold)
	results, err := s.store.Search(ctx, question, topK, s.ragCfg.SimilarityThreshold)
	if err != nil {
		log.Errorf("[RAG] 检索失败, 返回降级回答: %v", err)
		return &model.QueryResponseDTO{Answer: degradedAnswer, Question: req.Question}, nil
	}

	// 无命中是正常结果，不调用 LLM
	if len(results) == 0 {
		log.Infof("[RAG] 无命中, 返回固定回答")
		return &model.QueryResponseDTO{Answer: noResultsAnswer, Question: req.Question}, nil
	}
	log.Infof("[RAG] 检索命中 %d 条", len(results))

	contextText := buildContextBlocks(results)
	userPrompt := fmt.Sprintf("Context information:\n%s\nBased on the context above, please answer the following question:\n%s", contextText, question)
	answer, err := s.llmClient.Complete(ctx, answerSystemPrompt, userPrompt)
	if err != nil {
		log.Errorf("[RAG] 生成回答失败, 返回降级回答: %v", err)
		return &model.QueryResponseDTO{Answer: degradedAnswer, Question: req.Question}, nil
	}

	return &model.QueryResponseDTO{
		Answer:    answer,
		Question:  req.Question,
		Citations: buildCitations(results),
	}, nil
}

// buildContextBlocks 将命中拼为编号的上下文块。
func buildContextBlocks(results []model.SearchResult) string {
	var b strings.Builder
	for i, r := range results {
		b.WriteString(fmt.Sprintf("Document %d:\n%s\n\n", i+1, r.Chunk.Text))
	}
	return b.String()
}

// buildCitations 将命中转换为引用列表，与命中同序。
func buildCitations(results []model.SearchResult) []model.CitationDTO {
	citations := make([]model.CitationDTO, 0, len(results))
	for _, r := range results {
		citations = append(citations, model.CitationDTO{
			Source:    citationSource(r.Chunk.Metadata),
			Content:   excerpt(r.Chunk.Text),
			Page:      r.Chunk.Metadata.GetString(model.MetaPage),
			Relevance: r.Score,
		})
	}
	return citations
}

// citationSource 拼出展示用的来源标签, 形如 "manual.pdf (Page 3) [PDF]"。
// 页码与类型标记缺失时逐项省略, 只剩文件名。
func citationSource(md model.Metadata) string {
	label := md.Source()
	if page := md.GetString(model.MetaPage); page != "" {
		label += fmt.Sprintf(" (Page %s)", page)
	}
	if ct := md.GetString(model.MetaContentType); ct != "" {
		label += " [" + strings.ToUpper(ct) + "]"
	}
	return label
}

// excerpt 截取引用摘录，超长时保留前缀并追加省略号。
func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= citationExcerptMax {
		return text
	}
	return string(runes[:citationExcerptMax-3]) + "..."
}
