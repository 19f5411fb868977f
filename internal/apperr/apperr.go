// Package apperr 定义了检索子系统的错误分类。
// 调用方通过 errors.Is / errors.As 判断错误类别，而不是比较错误字符串。
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 表示指定的文档或标识符不存在。
	ErrNotFound = errors.New("document not found")

	// ErrExtraction 表示外部提取器无法处理文档内容。
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbedding 表示向量化调用失败（通常是提供方的瞬时故障）。
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration 表示生成式模型调用失败。
	ErrGeneration = errors.New("generation failed")

	// ErrIngestion 表示摄取管道在校验之后的某个阶段失败，
	// 对应的 DocumentMetadata 已被置为 ERROR 状态。
	ErrIngestion = errors.New("ingestion failed")

	// ErrConsistency 表示元数据与向量存储在删除后出现分歧，
	// 需要人工或对账任务介入，绝不能静默当作成功。
	ErrConsistency = errors.New("metadata/vector store inconsistency")
)

// ValidationError 表示输入在产生任何副作用之前就被拒绝。
// Constraint 描述被违反的具体约束，直接返回给调用方。
type ValidationError struct {
	Constraint string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Constraint
}

// Validationf 构造一个带格式化约束说明的 ValidationError。
func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Constraint: fmt.Sprintf(format, args...)}
}

// IsValidation 判断 err 是否为输入校验错误。
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
