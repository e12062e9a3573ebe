package reform

import (
	"github.com/hydroreg/water-licensing-backend/internal/clients/water"
)

// PicklistSchema converts a backend picklist into an enum JSON Schema
// fragment. Picklists flagged id_required keep their {id, value} shape so
// the stored data can be joined back to the source list; plain picklists
// collapse to a string enum.
func PicklistSchema(def water.Picklist, items []water.PicklistItem) map[string]any {
	if def.IDRequired {
		enum := make([]any, 0, len(items))
		for _, item := range items {
			enum = append(enum, map[string]any{"id": item.ID, "value": item.Value})
		}
		return map[string]any{"type": "object", "enum": enum}
	}
	enum := make([]any, 0, len(items))
	for _, item := range items {
		enum = append(enum, item.Value)
	}
	return map[string]any{"type": "string", "enum": enum}
}
