package mqtt

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/trip-fusion/internal/gpsstatus"
	"github.com/sweeney/trip-fusion/internal/recorder"
	"github.com/sweeney/trip-fusion/internal/stats"
)

// bufferCapacity bounds the messages kept while the broker is unreachable.
const bufferCapacity = 1000

var errNotConnected = errors.New("not connected")

// RealPublisher publishes to an actual MQTT broker. Messages published while
// disconnected are buffered and sent in order after reconnection.
type RealPublisher struct {
	client paho.Client
	topics Topics

	mu        sync.Mutex
	buffer    *ringBuffer
	onFix     FixHandler
	onSample  SampleHandler
	onConnect func(connected bool)
}

// NewRealPublisher creates a publisher for the given broker. The connection
// is retried in the background, so a broker that is down at startup is not
// an error.
func NewRealPublisher(broker string, topics Topics, clientID string) *RealPublisher {
	p := &RealPublisher{
		topics: topics,
		buffer: newRingBuffer(bufferCapacity),
	}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "SHUTDOWN", Reason: "MQTT_DISCONNECT"})
	if err != nil {
		log.Printf("mqtt: format will: %v", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(topics.System, string(will), 1, true).
		SetOnConnectHandler(p.handleConnect).
		SetConnectionLostHandler(p.handleConnectionLost)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("mqtt: connect to %s: %v", broker, err)
		}
	}()
	return p
}

// OnConnectionChange registers a callback for connection changes. It runs
// on the client's goroutine.
func (p *RealPublisher) OnConnectionChange(fn func(connected bool)) {
	p.mu.Lock()
	p.onConnect = fn
	p.mu.Unlock()
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer.len()
}

func (p *RealPublisher) handleConnect(c paho.Client) {
	log.Printf("mqtt: connected")

	p.mu.Lock()
	pending := p.buffer.drainAll()
	subscribed := p.onFix != nil
	notify := p.onConnect
	p.mu.Unlock()

	// Sessions are clean: subscriptions do not survive a reconnect.
	if subscribed {
		if err := p.subscribe(); err != nil {
			log.Printf("mqtt: resubscribe: %v", err)
		}
	}

	if len(pending) > 0 {
		log.Printf("mqtt: replaying %d buffered messages", len(pending))
	}
	for i, msg := range pending {
		if err := p.send(msg); err != nil {
			log.Printf("mqtt: replay failed after %d messages: %v", i, err)
			p.mu.Lock()
			p.buffer.requeue(pending[i:])
			p.mu.Unlock()
			break
		}
	}

	if notify != nil {
		notify(true)
	}
}

func (p *RealPublisher) handleConnectionLost(_ paho.Client, err error) {
	log.Printf("mqtt: connection lost: %v", err)
	p.mu.Lock()
	notify := p.onConnect
	p.mu.Unlock()
	if notify != nil {
		notify(false)
	}
}

// PublishPoint sends a recorded point. QoS 0, not retained.
func (p *RealPublisher) PublishPoint(pt recorder.Point) error {
	payload, err := FormatPoint(pt)
	if err != nil {
		return fmt.Errorf("format point: %w", err)
	}
	return p.publish(bufferedMsg{topic: p.topics.Points, payload: payload})
}

// PublishGPS sends a GPS status transition. QoS 1, retained so that new
// subscribers see the current state.
func (p *RealPublisher) PublishGPS(trackID string, e gpsstatus.Event) error {
	payload, err := FormatGPS(trackID, e)
	if err != nil {
		return fmt.Errorf("format gps: %w", err)
	}
	return p.publish(bufferedMsg{topic: p.topics.GPS, payload: payload, qos: 1, retained: true})
}

// PublishStats sends a statistics snapshot. QoS 0, retained.
func (p *RealPublisher) PublishStats(trackID string, s stats.TripStatistics, now time.Time) error {
	payload, err := FormatStats(trackID, s, now)
	if err != nil {
		return fmt.Errorf("format stats: %w", err)
	}
	return p.publish(bufferedMsg{topic: p.topics.Stats, payload: payload, retained: true})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	return p.publish(bufferedMsg{topic: p.topics.System, payload: payload, qos: 1, retained: event.Retained})
}

// publish sends msg, or buffers it while disconnected. A buffered message is
// not an error.
func (p *RealPublisher) publish(msg bufferedMsg) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.buffer.push(msg)
		p.mu.Unlock()
		return nil
	}
	if err := p.send(msg); err != nil {
		if errors.Is(err, errNotConnected) {
			p.mu.Lock()
			p.buffer.push(msg)
			p.mu.Unlock()
			return nil
		}
		return err
	}
	return nil
}

func (p *RealPublisher) send(msg bufferedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		if !p.client.IsConnectionOpen() {
			return fmt.Errorf("publish %s: %w", msg.topic, errNotConnected)
		}
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// Subscribe decodes inbound fixes and samples and hands them to the
// handlers. Malformed payloads are logged and dropped.
func (p *RealPublisher) Subscribe(onFix FixHandler, onSample SampleHandler) error {
	p.mu.Lock()
	p.onFix = onFix
	p.onSample = onSample
	p.mu.Unlock()

	if !p.client.IsConnectionOpen() {
		// handleConnect subscribes once the connection is up.
		return nil
	}
	return p.subscribe()
}

func (p *RealPublisher) subscribe() error {
	filters := map[string]byte{p.topics.InFix: 1, p.topics.InSensor: 0}
	token := p.client.SubscribeMultiple(filters, p.handleMessage)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe: timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	log.Printf("mqtt: subscribed to %s, %s", p.topics.InFix, p.topics.InSensor)
	return nil
}

func (p *RealPublisher) handleMessage(_ paho.Client, m paho.Message) {
	p.mu.Lock()
	onFix, onSample := p.onFix, p.onSample
	p.mu.Unlock()
	dispatch(p.topics, m.Topic(), m.Payload(), onFix, onSample)
}

// dispatch decodes payload by topic and calls the matching handler.
func dispatch(topics Topics, topic string, payload []byte, onFix FixHandler, onSample SampleHandler) {
	switch topic {
	case topics.InFix:
		f, err := DecodeFix(payload)
		if err != nil {
			log.Printf("mqtt: dropping fix: %v", err)
			return
		}
		if onFix != nil {
			onFix(f)
		}
	case topics.InSensor:
		s, err := DecodeSample(payload)
		if err != nil {
			log.Printf("mqtt: dropping sample: %v", err)
			return
		}
		if onSample != nil {
			onSample(s)
		}
	default:
		log.Printf("mqtt: ignoring message on %s", topic)
	}
}

// Close disconnects from the broker. Buffered messages are lost.
func (p *RealPublisher) Close() error {
	if n := p.Buffered(); n > 0 {
		log.Printf("mqtt: closing with %d unsent messages", n)
	}
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
