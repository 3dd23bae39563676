package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Noms：摊位食物标记，键为类别名，值通常为布尔；free_text 为附加说明
// 约束：保留未知键，原样读写
type Noms map[string]any

// Flag：仅当值严格为布尔 true 时返回 true
func (n Noms) Flag(key string) bool {
	v, ok := n[key].(bool)
	return ok && v
}

// FreeText：free_text 为字符串时返回，否则为空
func (n Noms) FreeText() string {
	s, _ := n["free_text"].(string)
	return s
}

// Value：写入 JSONB 列，nil 写 NULL
func (n Noms) Value() (driver.Value, error) {
	if n == nil {
		return nil, nil
	}
	return json.Marshal(n)
}

// Scan：读取 JSONB 列
func (n *Noms) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*n = nil
		return nil
	case []byte:
		return json.Unmarshal(v, n)
	case string:
		return json.Unmarshal([]byte(v), n)
	}
	return errors.New("noms: unsupported scan type")
}
