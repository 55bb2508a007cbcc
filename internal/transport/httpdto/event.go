package httpdto

// DomainEventRequest is the internal hook payload for marketplace
// producers. The event id doubles as the dedup key for fan-out.
type DomainEventRequest struct {
	EventID    string `json:"event_id" binding:"required"`
	PropertyID string `json:"property_id"`
	BuyerID    string `json:"buyer_id"`
	AgentID    string `json:"agent_id"`
	ActionURL  string `json:"action_url"`
}
