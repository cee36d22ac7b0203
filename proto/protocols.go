package proto

// Protocol names the request/response protocols carried over netx.Network.
// Request and response payloads are plain byte slices; no protobuf framing
// is applied to them.
type Protocol string

const (
	ProtoGetWorldHead    Protocol = "/aw/rr/1.0.0/get_world_head"
	ProtoFetchBlob       Protocol = "/aw/rr/1.0.0/fetch_blob"
	ProtoFetchBlock      Protocol = "/aw/rr/1.0.0/fetch_block"
	ProtoSubmitAction    Protocol = "/aw/rr/1.0.0/submit_action"
	ProtoGetMembership   Protocol = "/aw/rr/1.0.0/get_membership"
)

// GossipTopic names a pub/sub topic. Topics are scoped per world so a node
// following many worlds can subscribe selectively.
type GossipTopic string

// BlockTopic is the topic a world's block announcements are gossiped on.
func BlockTopic(worldID string) GossipTopic { return GossipTopic("aw." + worldID + ".block") }

// HeadTopic is the topic a world's head announcements are gossiped on.
func HeadTopic(worldID string) GossipTopic { return GossipTopic("aw." + worldID + ".head") }

// ActionTopic is the topic a world's actions are gossiped on before they
// reach a proposer's mempool.
func ActionTopic(worldID string) GossipTopic { return GossipTopic("aw." + worldID + ".action") }

// GovernanceTopic is the topic a world's governance proposals and votes are
// gossiped on.
func GovernanceTopic(worldID string) GossipTopic { return GossipTopic("aw." + worldID + ".governance") }
