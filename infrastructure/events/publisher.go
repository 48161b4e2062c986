// Package events publica as alterações de vendas para consumidores externos
package events

import (
	"context"
	"time"

	"github.com/vfg2006/sales-tracker-api/internal/domain"
)

type EventType string

const (
	SaleCreated EventType = "sale.created"
	SaleUpdated EventType = "sale.updated"
	SaleDeleted EventType = "sale.deleted"
)

// SaleEvent é o documento publicado a cada escrita confirmada. Sale é omitido na remoção.
type SaleEvent struct {
	Type       EventType    `json:"type"`
	SaleID     string       `json:"saleId"`
	OccurredAt time.Time    `json:"occurredAt"`
	Sale       *domain.Sale `json:"sale,omitempty"`
}

func NewSaleEvent(eventType EventType, saleID string, sale *domain.Sale, now time.Time) SaleEvent {
	return SaleEvent{
		Type:       eventType,
		SaleID:     saleID,
		OccurredAt: now.UTC(),
		Sale:       sale,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event SaleEvent) error
	Close() error
}

// NoopPublisher é usado quando EVENTS_ENABLED=false
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, SaleEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
