// Package model 定义了检索子系统的数据模型。
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// 元数据的固定键名。source 与 document_id 为必填项，在构造时校验；
// 其余键由提取器或摄取管道按需填充。
const (
	MetaSource      = "source"
	MetaDocumentID  = "document_id"
	MetaContentType = "content_type"
	MetaPage        = "page"
	MetaRowNumber   = "row_number"
	MetaSheetName   = "sheet_name"
	MetaChunkIndex  = "chunk_index"
	MetaProcessedAt = "processed_at"
	MetaFileSize    = "file_size"
	MetaUploadTime  = "upload_time"
	MetaChunkLength = "chunk_length"
	MetaWordCount   = "word_count"
)

// Metadata 是一个保持插入顺序的标量键值映射。
// 它取代开放的 map[string]any：必填键在构造时校验，遍历顺序稳定。
type Metadata struct {
	keys   []string
	values map[string]interface{}
}

// NewMetadata 构造一个带必填键的 Metadata。
// source 与 documentID 均不能为空。
func NewMetadata(source, documentID string) (Metadata, error) {
	if source == "" {
		return Metadata{}, fmt.Errorf("metadata: %s 不能为空", MetaSource)
	}
	if documentID == "" {
		return Metadata{}, fmt.Errorf("metadata: %s 不能为空", MetaDocumentID)
	}
	md := Metadata{values: make(map[string]interface{})}
	md.Set(MetaSource, source)
	md.Set(MetaDocumentID, documentID)
	return md, nil
}

// Set 写入一个键值对；已存在的键被覆盖但保持原有位置。
func (m *Metadata) Set(key string, value interface{}) {
	if m.values == nil {
		m.values = make(map[string]interface{})
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// SetIfAbsent 仅在键不存在时写入。摄取管道的补充性富化使用它，
// 保证不覆盖提取阶段已经写入的键。
func (m *Metadata) SetIfAbsent(key string, value interface{}) {
	if m.values != nil {
		if _, ok := m.values[key]; ok {
			return
		}
	}
	m.Set(key, value)
}

// Get 返回键对应的值。
func (m Metadata) Get(key string) (interface{}, bool) {
	v, ok := m.values[key]
	return v, ok
}

// GetString 返回键对应的字符串值；键不存在或类型不符时返回空串。
func (m Metadata) GetString(key string) string {
	if v, ok := m.values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetInt 返回键对应的整数值；键不存在或类型不符时返回 0。
// JSON 反序列化后的整数会以 int64 存储，这里一并处理。
func (m Metadata) GetInt(key string) int {
	switch v := m.values[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Source 返回来源文档的显示名。
func (m Metadata) Source() string { return m.GetString(MetaSource) }

// DocumentID 返回所属文档的稳定标识。
func (m Metadata) DocumentID() string { return m.GetString(MetaDocumentID) }

// Keys 按插入顺序返回所有键的副本。
func (m Metadata) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len 返回键的数量。
func (m Metadata) Len() int { return len(m.keys) }

// Clone 返回一个独立的副本。
func (m Metadata) Clone() Metadata {
	c := Metadata{
		keys:   make([]string, len(m.keys)),
		values: make(map[string]interface{}, len(m.values)),
	}
	copy(c.keys, m.keys)
	for k, v := range m.values {
		c.values[k] = v
	}
	return c
}

// MarshalJSON 按插入顺序序列化为扁平 JSON 对象。
// pgvector 后端以该格式写入 jsonb 列。
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON 从扁平 JSON 对象恢复，保持对象中的键顺序。
func (m *Metadata) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("metadata: 期望 JSON 对象")
	}

	m.keys = nil
	m.values = make(map[string]interface{})
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if n, ok := raw.(json.Number); ok {
			// 整数值优先还原为 int64
			if i, err := n.Int64(); err == nil {
				raw = i
			} else if f, err := n.Float64(); err == nil {
				raw = f
			}
		}
		m.Set(key, raw)
	}
	// 读掉结尾的 '}'
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
