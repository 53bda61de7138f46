package messaging

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectUserRegistered = "todo.user.registered"
	SubjectTaskCreated    = "todo.task.created"
	SubjectTaskUpdated    = "todo.task.updated"
	SubjectTaskDeleted    = "todo.task.deleted"
)

// Publisher emits domain events. Delivery is best effort: callers log
// failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, subject string, event interface{}) error
}

type UserRegistered struct {
	Email      string    `json:"email"`
	Federated  bool      `json:"federated"`
	OccurredAt time.Time `json:"occurred_at"`
}

type TaskEvent struct {
	TaskID     string    `json:"task_id"`
	OwnerEmail string    `json:"owner_email,omitempty"`
	Name       string    `json:"name,omitempty"`
	Priority   string    `json:"priority,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type NatsPublisher struct {
	nc *nats.Conn
}

// ConnectNats dials url with reconnect handling enabled.
func ConnectNats(url string) (*NatsPublisher, error) {
	opts := []nats.Option{
		nats.Name("todo-service"),
		nats.Timeout(5 * time.Second),
		nats.ReconnectWait(1 * time.Second),
		nats.MaxReconnects(10),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Println("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Printf("NATS error: %v", err)
		}),
		nats.DrainTimeout(10 * time.Second),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	log.Printf("connected to NATS at %s", nc.ConnectedUrl())
	return &NatsPublisher{nc: nc}, nil
}

func (p *NatsPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.nc.IsConnected() {
		return nats.ErrConnectionClosed
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.nc.Publish(subject, data)
}

// Close flushes pending messages and closes the connection.
func (p *NatsPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		log.Printf("NATS drain: %v", err)
	}
}

// NopPublisher drops every event. It is used when NATS_URL is not set.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
