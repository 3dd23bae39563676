// 包 noms：把摊位食物标记整理成可读描述
package noms

import (
	"strings"

	"demsausage-api/internal/models"
)

// Category：食物类别与描述
type Category struct {
	Key        string
	Descriptor string
}

// Categories：输出顺序即声明顺序
var Categories = []Category{
	{Key: "bbq", Descriptor: "sausage sizzle"},
	{Key: "cake", Descriptor: "cake stall"},
	{Key: "coffee", Descriptor: "coffee"},
	{Key: "vego", Descriptor: "vegetarian options"},
	{Key: "halal", Descriptor: "halal options"},
	{Key: "bacon_and_eggs", Descriptor: "bacon and egg burgers"},
}

// Describe：仅收录值严格为 true 的类别，非空 free_text 作为最后一项
func Describe(n models.Noms) string {
	if n == nil {
		return ""
	}
	parts := make([]string, 0, len(Categories)+1)
	for _, c := range Categories {
		if n.Flag(c.Key) {
			parts = append(parts, c.Descriptor)
		}
	}
	if ft := n.FreeText(); ft != "" {
		parts = append(parts, "and additional options: "+ft)
	}
	return strings.Join(parts, ", ")
}
