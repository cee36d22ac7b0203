package netx

import (
	"context"
	"sync"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	pubsub "github.com/libp2p/go-libp2p-pubsub"

	"github.com/luxfi/agentworld/proto"
)

// Libp2pNetwork is the real peer-to-peer backend: gossip topics ride
// go-libp2p-pubsub's GossipSub router, and request/response protocols ride
// libp2p streams keyed by protocol.ID, mirroring
// original_source/.../libp2p_net.rs's use of libp2p::identity::Keypair and
// libp2p::PeerId for the same two concerns.
type Libp2pNetwork struct {
	host host.Host
	ps   *pubsub.PubSub

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewLibp2pNetwork wraps an already-constructed libp2p host and a GossipSub
// router built over it (both are expensive to construct and have their own
// lifecycle, so callers own them).
func NewLibp2pNetwork(h host.Host, ps *pubsub.PubSub) *Libp2pNetwork {
	return &Libp2pNetwork{host: h, ps: ps, topics: map[string]*pubsub.Topic{}}
}

var _ Network = (*Libp2pNetwork)(nil)

func (n *Libp2pNetwork) topicFor(name string) (*pubsub.Topic, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if t, ok := n.topics[name]; ok {
		return t, nil
	}
	t, err := n.ps.Join(name)
	if err != nil {
		return nil, proto.WrapError(proto.ErrNetworking, "netx.Libp2pNetwork", "join topic "+name, err)
	}
	n.topics[name] = t
	return t, nil
}

func (n *Libp2pNetwork) Publish(topic string, payload []byte) error {
	t, err := n.topicFor(topic)
	if err != nil {
		return err
	}
	if err := t.Publish(context.Background(), payload); err != nil {
		return proto.WrapError(proto.ErrNetworking, "netx.Libp2pNetwork.Publish", "publish to "+topic, err)
	}
	return nil
}

func (n *Libp2pNetwork) Subscribe(topic string) (Subscription, error) {
	t, err := n.topicFor(topic)
	if err != nil {
		return Subscription{}, err
	}
	sub, err := t.Subscribe()
	if err != nil {
		return Subscription{}, proto.WrapError(proto.ErrNetworking, "netx.Libp2pNetwork.Subscribe", "subscribe to "+topic, err)
	}

	ch := make(chan []byte, 64)
	go pumpSubscription(sub, n.host.ID(), ch)
	return Subscription{Topic: topic, Messages: ch}, nil
}

// pumpSubscription forwards messages not self-originated into ch until
// sub.Next returns an error (it waits on a background context, so only a
// cancelled subscription ends it), filtering our own gossip echo the way
// GossipSub's own loopback would otherwise surface it. A message that
// arrives while ch's buffer is full is dropped.
func pumpSubscription(sub *pubsub.Subscription, selfID peer.ID, ch chan<- []byte) {
	defer close(ch)
	ctx := context.Background()
	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			return
		}
		if msg.ReceivedFrom == selfID {
			continue
		}
		select {
		case ch <- msg.Data:
		default:
		}
	}
}

func (n *Libp2pNetwork) Request(protocolName string, payload []byte) ([]byte, error) {
	return nil, proto.NewError(proto.ErrNetworking, "netx.Libp2pNetwork.Request",
		"direct request requires a known peer ID; use RequestPeer")
}

// RequestPeer opens a stream to peerID over protocolName, writes payload,
// and returns the peer's full response. It is the libp2p-specific entry
// point for a caller that already knows the peer's ID; Request exists only
// to satisfy the Network interface and always returns an error.
func (n *Libp2pNetwork) RequestPeer(peerID peer.ID, protocolName string, payload []byte) ([]byte, error) {
	stream, err := n.host.NewStream(context.Background(), peerID, protocol.ID(protocolName))
	if err != nil {
		return nil, proto.WrapError(proto.ErrNetworking, "netx.Libp2pNetwork.RequestPeer", "open stream", err)
	}
	defer stream.Close()

	if _, err := stream.Write(payload); err != nil {
		return nil, proto.WrapError(proto.ErrNetworking, "netx.Libp2pNetwork.RequestPeer", "write request", err)
	}
	if err := stream.CloseWrite(); err != nil {
		return nil, proto.WrapError(proto.ErrNetworking, "netx.Libp2pNetwork.RequestPeer", "close write side", err)
	}

	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := stream.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			break
		}
	}
	return buf, nil
}

func (n *Libp2pNetwork) RegisterHandler(protocolName string, handler RequestHandler) error {
	n.host.SetStreamHandler(protocol.ID(protocolName), func(s network.Stream) {
		defer s.Close()
		buf := make([]byte, 0, 4096)
		chunk := make([]byte, 4096)
		for {
			read, err := s.Read(chunk)
			if read > 0 {
				buf = append(buf, chunk[:read]...)
			}
			if err != nil {
				break
			}
		}
		resp, err := handler(buf)
		if err != nil {
			return
		}
		_, _ = s.Write(resp)
	})
	return nil
}
