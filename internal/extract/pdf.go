package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"rag-chat-go/internal/apperr"
)

// extractPDF 逐页提取 PDF 文本，每页产生一个片段并记录页码。
func extractPDF(content []byte) ([]Segment, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: 打开 PDF 失败: %v", apperr.ErrExtraction, err)
	}

	var segments []Segment
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: 提取第 %d 页失败: %v", apperr.ErrExtraction, i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		segments = append(segments, Segment{
			Text: text,
			Page: strconv.Itoa(i),
		})
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: PDF 未提取到任何文本", apperr.ErrExtraction)
	}
	return segments, nil
}
