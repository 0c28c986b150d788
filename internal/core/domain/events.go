package domain

// EventType enumerates the change events pushed over the realtime channel.
type EventType string

const (
	EventProductAdded    EventType = "product_added"
	EventProductUpdated  EventType = "product_updated"
	EventProductDeleted  EventType = "product_deleted"
	EventSaleAdded       EventType = "sale_added"
	EventExpenseAdded    EventType = "expense_added"
	EventBusinessUpdated EventType = "business_updated"
	EventBusinessDeleted EventType = "business_deleted"
)

// ChangeEvent is a single entity-level change, scoped to one business. Deleted
// events carry only EntityID; the rest carry the full changed entity so
// receiving devices can apply it without a follow-up fetch.
type ChangeEvent struct {
	Type       EventType `json:"type"`
	BusinessID string    `json:"businessID"`
	EntityID   string    `json:"entityID,omitempty"`
	Product    *Product  `json:"product,omitempty"`
	Sale       *Sale     `json:"sale,omitempty"`
	Expense    *Expense  `json:"expense,omitempty"`
	Business   *Business `json:"business,omitempty"`
}
