package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lu4p/cat"

	"rag-chat-go/internal/apperr"
)

// extractDocx 通过 lu4p/cat 提取 DOCX 正文。
// cat 只接受文件路径，因此先落一个临时文件。
func extractDocx(content []byte) ([]Segment, error) {
	tmpDir, err := os.MkdirTemp("", "extract-docx-")
	if err != nil {
		return nil, fmt.Errorf("%w: 创建临时目录失败: %v", apperr.ErrExtraction, err)
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, "document.docx")
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return nil, fmt.Errorf("%w: 写入临时文件失败: %v", apperr.ErrExtraction, err)
	}

	text, err := cat.File(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("%w: 提取 DOCX 失败: %v", apperr.ErrExtraction, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: DOCX 未提取到任何文本", apperr.ErrExtraction)
	}
	return []Segment{{Text: text}}, nil
}
