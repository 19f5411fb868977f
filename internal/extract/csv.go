package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"rag-chat-go/internal/apperr"
)

// extractCSV 将每个数据行渲染为 "列名: 值" 的多行文本，每行一个片段。
// 第一行视为表头，行号从表头后的第一行（2）开始计数。
func extractCSV(content []byte) ([]Segment, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1 // 允许行宽不一致

	var segments []Segment
	var headers []string
	rowNumber := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: 解析 CSV 失败: %v", apperr.ErrExtraction, err)
		}
		rowNumber++

		if rowNumber == 1 {
			headers = row
			continue
		}

		var rowText strings.Builder
		for i, value := range row {
			if i < len(headers) {
				rowText.WriteString(headers[i])
			} else {
				rowText.WriteString("Column " + strconv.Itoa(i+1))
			}
			rowText.WriteString(": ")
			rowText.WriteString(value)
			rowText.WriteByte('\n')
		}
		if rowText.Len() == 0 {
			continue
		}
		segments = append(segments, Segment{
			Text:      rowText.String(),
			RowNumber: strconv.Itoa(rowNumber),
		})
	}
	return segments, nil
}
