// Package extract 将原始文件内容转换为带来源信息的文本片段。
// 每种文件类型对应一个本地解析器，没有本地解析器的类型走 Tika 兜底通道。
// 提取失败以文档为单位上报：单个损坏的文档不会影响其他文档的处理。
package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"rag-chat-go/internal/apperr"
	"rag-chat-go/pkg/tika"
)

// Segment 是提取器输出的一个文本片段。
// PDF 每页一个片段，表格每个有效行一个片段，纯文本整个正文一个片段。
type Segment struct {
	Text      string
	Page      string // PDF 页码，从 1 开始
	RowNumber string // CSV/Excel 行号
	SheetName string // Excel 工作表名
}

// Extractor 是摄取管道消费的提取能力。
type Extractor interface {
	// Extract 返回文本片段与内容类型标签（如 "pdf"、"csv"）。
	Extract(ctx context.Context, data []byte, filename, declaredType string) ([]Segment, string, error)
}

// 支持的内容类型白名单，与校验阶段共用。
var supportedTypes = map[string]bool{
	"application/pdf": true,
	"text/plain":      true,
	"text/csv":        true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"image/jpeg": true,
	"image/png":  true,
	"image/tiff": true,
	"image/bmp":  true,
}

// IsSupported 判断内容类型是否在白名单内。
func IsSupported(contentType string) bool {
	return supportedTypes[contentType]
}

// SupportedTypes 返回排序后的白名单副本, 对外接口的输出顺序稳定。
func SupportedTypes() []string {
	out := make([]string, 0, len(supportedTypes))
	for t := range supportedTypes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// DetectContentType 优先根据文件扩展名判断内容类型，其次使用声明的类型。
func DetectContentType(filename, declaredType string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(lower, ".txt"):
		return "text/plain"
	case strings.HasSuffix(lower, ".csv"):
		return "text/csv"
	case strings.HasSuffix(lower, ".doc"):
		return "application/msword"
	case strings.HasSuffix(lower, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case strings.HasSuffix(lower, ".xls"):
		return "application/vnd.ms-excel"
	case strings.HasSuffix(lower, ".xlsx"):
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".tiff"), strings.HasSuffix(lower, ".tif"):
		return "image/tiff"
	case strings.HasSuffix(lower, ".bmp"):
		return "image/bmp"
	}
	if declaredType != "" {
		return declaredType
	}
	return "application/octet-stream"
}

// Service 按内容类型分发到具体解析器。
type Service struct {
	tikaClient *tika.Client
}

// NewService 创建一个新的提取服务。tikaClient 可以为未配置状态。
func NewService(tikaClient *tika.Client) *Service {
	return &Service{tikaClient: tikaClient}
}

// Extract 提取文件内容并返回片段与内容类型标签。
func (s *Service) Extract(ctx context.Context, data []byte, filename, declaredType string) ([]Segment, string, error) {
	contentType := DetectContentType(filename, declaredType)

	switch contentType {
	case "application/pdf":
		segments, err := extractPDF(data)
		return segments, "pdf", err
	case "text/plain":
		return []Segment{{Text: string(data)}}, "text", nil
	case "text/csv":
		segments, err := extractCSV(data)
		return segments, "csv", err
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		segments, err := extractDocx(data)
		return segments, "docx", err
	case "application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		segments, err := extractExcel(data)
		if err != nil && contentType == "application/vnd.ms-excel" {
			// 旧版 .xls 不是 OOXML，excelize 打不开时走 Tika
			return s.extractWithTika(ctx, data, contentType)
		}
		return segments, "excel", err
	case "image/jpeg", "image/png", "image/tiff", "image/bmp":
		return imagePlaceholder(filename, contentType, int64(len(data))), "image", nil
	case "application/msword":
		return s.extractWithTika(ctx, data, contentType)
	default:
		return s.extractWithTika(ctx, data, contentType)
	}
}

// extractWithTika 将解析委托给 Tika 服务器。
func (s *Service) extractWithTika(ctx context.Context, data []byte, contentType string) ([]Segment, string, error) {
	if !s.tikaClient.Available() {
		return nil, "", fmt.Errorf("%w: 类型 %s 没有本地解析器且未配置 Tika", apperr.ErrExtraction, contentType)
	}
	text, err := s.tikaClient.ExtractText(ctx, data, contentType)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", apperr.ErrExtraction, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, "", fmt.Errorf("%w: Tika 提取的文本内容为空", apperr.ErrExtraction)
	}
	return []Segment{{Text: text}}, "tika_processed", nil
}

// imagePlaceholder 为图片生成占位片段。真正的 OCR 尚未接入。
// TODO: 接入 Tika 的 OCR 端点（/tika 带 X-Tika-OCRLanguage）替换占位文本。
func imagePlaceholder(filename, contentType string, size int64) []Segment {
	text := fmt.Sprintf(
		"Image file: %s\nType: %s\nSize: %d bytes\n\n[OCR processing would be implemented here]",
		filename, contentType, size,
	)
	return []Segment{{Text: text}}
}
