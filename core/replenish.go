package core

// ReplenishmentQueueItem is one entity's top-up for a monitoring period.
// Needed is the quantity actually shipped; when DC inventory could not cover
// the full need, the available partial amount ships and DCAvailable is false
// so the caller can surface a warning. Items are recomputed every period;
// only the latest view matters.
type ReplenishmentQueueItem struct {
	EntityID         string `json:"entity_id"`
	CurrentInventory int    `json:"current_inventory"`
	Needed           int    `json:"needed"`
	DCAvailable      bool   `json:"dc_available"`
}
