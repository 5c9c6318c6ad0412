// Package queue defines the inventory event payload exchanged over the
// message broker and the consumer that reads it back.
package queue

import "time"

// QueueName is the default durable queue for inventory events.
const QueueName = "inventory.events"

// Event types published by the services.
const (
	ProductCreated  = "product.created"
	ProductUpdated  = "product.updated"
	ProductDeleted  = "product.deleted"
	CompanyCreated  = "company.created"
	CompanyUpdated  = "company.updated"
	CompanyDeleted  = "company.deleted"
	UserRemoved     = "user.removed"
	UserRoleChanged = "user.role_changed"
	UserRegistered  = "user.registered"
)

// Event describes a change inside a company.  It carries enough context
// for downstream consumers to log or audit without querying the database.
type Event struct {
	Type       string            `json:"type"`
	CompanyID  int64             `json:"company_id"`
	ActorID    int64             `json:"actor_id"`
	EntityID   int64             `json:"entity_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Data       map[string]string `json:"data,omitempty"`
}

// NewEvent stamps an event with the current UTC time.
func NewEvent(typ string, companyID, actorID, entityID int64) Event {
	return Event{
		Type:       typ,
		CompanyID:  companyID,
		ActorID:    actorID,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
}
