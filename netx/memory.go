package netx

import "sync"

// InMemoryNetwork is a single-process Network used in tests and
// single-node deployments: publish fans out to every live subscriber
// channel for the topic, and request/response is a direct in-process call
// into the registered handler.
type InMemoryNetwork struct {
	mu          sync.Mutex
	subscribers map[string][]chan []byte
	handlers    map[string]RequestHandler
	published   []publishedMessage
}

type publishedMessage struct {
	Topic   string
	Payload []byte
}

// NewInMemoryNetwork returns an empty network.
func NewInMemoryNetwork() *InMemoryNetwork {
	return &InMemoryNetwork{
		subscribers: map[string][]chan []byte{},
		handlers:    map[string]RequestHandler{},
	}
}

var _ Network = (*InMemoryNetwork)(nil)

// Published returns every message ever published, for test assertions.
func (n *InMemoryNetwork) Published() []publishedMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]publishedMessage(nil), n.published...)
}

func (n *InMemoryNetwork) Publish(topic string, payload []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, publishedMessage{Topic: topic, Payload: payload})
	for _, ch := range n.subscribers[topic] {
		select {
		case ch <- payload:
		default:
			// slow subscriber; drop rather than block the publisher,
			// matching the at-most-once delivery the gossip layer assumes.
		}
	}
	return nil
}

func (n *InMemoryNetwork) Subscribe(topic string) (Subscription, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ch := make(chan []byte, 64)
	n.subscribers[topic] = append(n.subscribers[topic], ch)
	return Subscription{Topic: topic, Messages: ch}, nil
}

func (n *InMemoryNetwork) Request(protocol string, payload []byte) ([]byte, error) {
	n.mu.Lock()
	handler, ok := n.handlers[protocol]
	n.mu.Unlock()
	if !ok {
		return nil, ErrProtocolUnavailable(protocol)
	}
	return handler(payload)
}

func (n *InMemoryNetwork) RegisterHandler(protocol string, handler RequestHandler) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[protocol] = handler
	return nil
}
