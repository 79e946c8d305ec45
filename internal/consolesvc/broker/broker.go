package broker

import (
	"encoding/json"
	"fmt"

	"github.com/avvvet/console-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const SubjectPrefix = "console.events"

// Broker carries console events over NATS so every console instance and
// riskwatch reach all connected browsers.
type Broker struct {
	Conn *nats.Conn
}

func NewBroker(nc *nats.Conn) *Broker {
	return &Broker{Conn: nc}
}

func Subject(eventType string) string {
	return SubjectPrefix + "." + eventType
}

// publish message to the console event subjects
func (b *Broker) Publish(subject string, payload []byte) error {
	err := b.Conn.Publish(subject, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", subject, err)
		return err
	}

	return nil
}

func (b *Broker) PublishEvent(ev comm.ConsoleEvent) error {
	msg, err := comm.NewWSMessage("event", ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return b.Publish(Subject(ev.Type), payload)
}

// Subscribe delivers every console event to handle.
func (b *Broker) Subscribe(handle func(comm.WSMessage, comm.ConsoleEvent)) (*nats.Subscription, error) {
	return b.Conn.Subscribe(SubjectPrefix+".>", func(m *nats.Msg) {
		var msg comm.WSMessage
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			log.Errorf("Error nats message %s", err)
			return
		}
		var ev comm.ConsoleEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Errorf("Error decoding console event on %s: %s", m.Subject, err)
			return
		}
		handle(msg, ev)
	})
}
