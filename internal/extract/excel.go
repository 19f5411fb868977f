package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"rag-chat-go/internal/apperr"
)

// extractExcel 遍历所有工作表，第一行视为表头，
// 每个非空数据行渲染为 "列名: 值" 文本并产生一个片段。
func extractExcel(content []byte) ([]Segment, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: 打开工作簿失败: %v", apperr.ErrExtraction, err)
	}
	defer f.Close()

	var segments []Segment
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: 读取工作表 %q 失败: %v", apperr.ErrExtraction, sheet, err)
		}
		if len(rows) == 0 {
			continue
		}

		headers := rows[0]
		for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
			var rowText strings.Builder
			for colIdx, value := range rows[rowIdx] {
				if strings.TrimSpace(value) == "" {
					continue
				}
				if colIdx < len(headers) && headers[colIdx] != "" {
					rowText.WriteString(headers[colIdx])
				} else {
					rowText.WriteString("Column " + strconv.Itoa(colIdx+1))
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
				RowNumber: strconv.Itoa(rowIdx),
				SheetName: sheet,
			})
		}
	}
	return segments, nil
}
