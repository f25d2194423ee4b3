package mqtt

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/once-timer/internal/logic"
)

// BacklogSize is the number of messages held while the broker is unreachable.
const BacklogSize = 256

const publishTimeout = 5 * time.Second

// RealPublisher publishes to an actual MQTT broker. Messages published while
// disconnected are held in a backlog and replayed once the client reconnects.
type RealPublisher struct {
	client paho.Client

	mu        sync.Mutex
	pending   *backlog
	connected bool // at least one successful connect
}

// NewRealPublisher creates a publisher for the given broker. The connection is
// established in the background; publishing before it is up is buffered.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	p := &RealPublisher{pending: newBacklog(BacklogSize)}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	msgs := p.pending.take()
	reconnect := p.connected
	p.connected = true
	p.mu.Unlock()

	if reconnect {
		log.Printf("mqtt: reconnected, replaying %d buffered messages", len(msgs))
	} else {
		log.Printf("mqtt: connected, replaying %d buffered messages", len(msgs))
	}

	// Handlers run on the client's goroutine; waiting on tokens here would
	// stall the connection, so replay is fire-and-forget.
	for _, m := range msgs {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		c.Publish(TopicSystem, 1, false, payload)
	}
}

// IsConnected reports whether the broker connection is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Publish sends a timer transition to the MQTT broker.
func (p *RealPublisher) Publish(tr logic.Transition) error {
	payload, err := FormatPayload(tr)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	if err := p.send(Topic, 0, false, payload); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events
	if err := p.send(TopicSystem, 1, event.Retained, payload); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		if p.pending.add(outbound{topic: topic, payload: payload, qos: qos, retained: retained}) && p.pending.dropped == 1 {
			log.Printf("mqtt: backlog full (%d messages), dropping oldest", BacklogSize)
		}
		p.mu.Unlock()
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.New("timeout")
	}
	return token.Error()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
