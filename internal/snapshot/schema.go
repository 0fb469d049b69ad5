// internal/snapshot/schema.go
// Purpose: JSON Schema for the persisted key/value layout, for external tooling.

package snapshot

import "github.com/invopop/jsonschema"

// --- Types ---

// Layout describes every value the core persists, one field per key family.
// It exists to generate a JSON schema for external tooling.
type Layout struct {
	Cache     []CoinRecord    `json:"cache" jsonschema:"description=Value stored under each cache key"`
	Inventory []CoinRecord    `json:"inventory" jsonschema:"description=Value stored under the inventory key"`
	Path      [][]PointRecord `json:"path" jsonschema:"description=Value stored under the path key"`
}

// --- Public methods ---

// Schema reflects the persisted layout into a JSON schema document.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.Reflect(new(Layout))
	schema.Title = "geocoin persisted state"
	schema.Description = "Key/value layout written through the persistence layer."
	return schema
}
