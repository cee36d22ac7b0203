// Package netx provides the topic pub/sub and request/response transport
// worlds use to gossip blocks, heads, and governance proposals, and to
// answer point-to-point queries (get_world_head, fetch_blob). Grounded on
// original_source/.../runtime/distributed_net.rs (DistributedNetwork trait
// + InMemoryNetwork). The libp2p backend lives in libp2p.go.
package netx

import "github.com/luxfi/agentworld/proto"

// RequestHandler answers a request/response protocol call.
type RequestHandler func(payload []byte) ([]byte, error)

// Subscription delivers messages published to one topic since Subscribe
// was called, via a channel buffered to 64 messages rather than the Rust
// original's Vec-drain. While the buffer is full, newly published
// messages are dropped; older buffered messages are kept.
type Subscription struct {
	Topic    string
	Messages <-chan []byte
}

// Network is the transport every node uses for both world-scoped gossip
// and request/response protocols. Protocol names follow the
// "/aw/rr/1.0.0/..." convention defined in proto/protocols.go.
type Network interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string) (Subscription, error)
	Request(protocol string, payload []byte) ([]byte, error)
	RegisterHandler(protocol string, handler RequestHandler) error
}

// ErrProtocolUnavailable is returned by Request when no handler has been
// registered for the requested protocol.
func ErrProtocolUnavailable(protocol string) error {
	return proto.NewError(proto.ErrNetworking, "netx.Request", "no handler for protocol "+protocol)
}
