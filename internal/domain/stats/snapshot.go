// Package stats contains domain types for the live statistics feed.
package stats

// Snapshot is an immutable point-in-time view of application statistics.
// A new value replaces the previous one wholesale on each refresh; it is
// never partially merged.
type Snapshot struct {
	RecipeCount    int     `json:"recipeCount"`
	InventoryCount int     `json:"inventoryCount"`
	UserCount      int     `json:"userCount"`
	CuisineCount   int     `json:"cuisineCount"`
	InventoryValue float64 `json:"inventoryValue"`
}

// ZeroSnapshot is the well-defined fallback emitted when an upstream fetch
// fails, so dependent UI never crashes or hangs on a transient failure.
func ZeroSnapshot() Snapshot { return Snapshot{} }
