package services

import (
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectPartnerCreated = "partners.created"
	SubjectPartnerUpdated = "partners.updated"
	SubjectPartnerDeleted = "partners.deleted"
	SubjectPartnerStatus  = "partners.status"
)

// EventPublisher announces partner lifecycle changes on NATS. Publishing is
// best effort: a failure is logged and never fails the request that caused
// it. Without a connection it only logs.
type EventPublisher struct {
	nc *nats.Conn
}

// NewEventPublisher connects to url; an empty url gives a log-only publisher.
func NewEventPublisher(url string) *EventPublisher {
	if url == "" {
		log.Println("NATS_URL not set, partner events will only be logged.")
		return &EventPublisher{}
	}
	nc, err := nats.Connect(url,
		nats.Name("medlink-api"),
		nats.Timeout(5*time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(10),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Println("NATS reconnected")
		}),
	)
	if err != nil {
		log.Printf("Failed to connect to NATS, partner events will only be logged: %v", err)
		return &EventPublisher{}
	}
	log.Println("Connected to NATS.")
	return &EventPublisher{nc: nc}
}

type PartnerEvent struct {
	PartnerID string    `json:"partnerId"`
	Name      string    `json:"name,omitempty"`
	IsActive  bool      `json:"isActive"`
	ActorID   string    `json:"actorId,omitempty"`
	At        time.Time `json:"at"`
}

func (p *EventPublisher) Publish(subject string, event PartnerEvent) {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	if p == nil || p.nc == nil || !p.nc.IsConnected() {
		log.Printf("event %s for partner %s not published: NATS unavailable", subject, event.PartnerID)
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", subject, err)
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		log.Printf("Failed to publish %s for partner %s: %v", subject, event.PartnerID, err)
	}
}

func (p *EventPublisher) Close() {
	if p != nil && p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			log.Printf("NATS drain: %v", err)
		}
	}
}
