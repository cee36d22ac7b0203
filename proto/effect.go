package proto

import "strings"

// EffectOriginKind tags the variant of EffectOrigin.
type EffectOriginKind string

const (
	OriginReducer EffectOriginKind = "reducer"
	OriginPlan    EffectOriginKind = "plan"
	OriginSystem  EffectOriginKind = "system"
)

// EffectOrigin is the source of an effect request.
type EffectOrigin struct {
	Kind EffectOriginKind `cbor:"kind"`
	Name string           `cbor:"name,omitempty"`
}

// EffectIntent is a queued request to perform a side effect outside the
// deterministic core.
type EffectIntent struct {
	IntentID IntentID     `cbor:"intent_id"`
	Kind     string       `cbor:"kind"`
	Params   []byte       `cbor:"params,omitempty"` // canonical-CBOR-encoded JSON-like payload
	CapRef   string       `cbor:"cap_ref"`
	Origin   EffectOrigin `cbor:"origin"`
}

// SignatureAlgorithm tags which scheme signed a receipt.
type SignatureAlgorithm string

const (
	SigHmacSha256 SignatureAlgorithm = "hmac-sha256"
)

// ReceiptSignature is a cryptographic signature over a receipt.
type ReceiptSignature struct {
	Algorithm    SignatureAlgorithm `cbor:"algorithm"`
	SignatureHex string             `cbor:"signature_hex"`
}

// EffectQueued records that an intent cleared policy and capability checks
// and was admitted into the inflight set, awaiting a receipt. Denied
// intents never produce one of these.
type EffectQueued struct {
	IntentID   IntentID         `cbor:"intent_id"`
	Kind       string           `cbor:"kind"`
	CapRef     string           `cbor:"cap_ref"`
	OriginKind EffectOriginKind `cbor:"origin_kind"`
	QueuedAt   WorldTime        `cbor:"queued_at"`
}

// EffectReceipt is the reply to a dispatched EffectIntent.
type EffectReceipt struct {
	IntentID  IntentID          `cbor:"intent_id"`
	Status    string            `cbor:"status"`
	Payload   []byte            `cbor:"payload,omitempty"`
	CostCents *uint64           `cbor:"cost_cents,omitempty"`
	Signature *ReceiptSignature `cbor:"signature,omitempty"`
}

// CapabilityGrant names the effect kinds a cap_ref is allowed to emit.
type CapabilityGrant struct {
	Name        string     `cbor:"name"`
	EffectKinds []string   `cbor:"effect_kinds"`
	Expiry      *WorldTime `cbor:"expiry,omitempty"`
}

// AllowAllCapability grants every effect kind, used in tests and bootstrap.
func AllowAllCapability(name string) CapabilityGrant {
	return CapabilityGrant{Name: name, EffectKinds: []string{"*"}}
}

// Allows reports whether this grant covers the effect kind, per spec: exact
// match, "*", or a "prefix.*" wildcard.
func (g CapabilityGrant) Allows(kind string) bool {
	for _, allowed := range g.EffectKinds {
		if allowed == "*" || allowed == kind {
			return true
		}
		if strings.HasSuffix(allowed, ".*") && strings.HasPrefix(kind, allowed[:len(allowed)-1]) {
			return true
		}
	}
	return false
}

// IsExpired reports whether the grant has passed its expiry at now.
func (g CapabilityGrant) IsExpired(now WorldTime) bool {
	return g.Expiry != nil && now > *g.Expiry
}

// OriginKindOf simplifies an EffectOrigin to its kind, for policy matching.
func OriginKindOf(o EffectOrigin) EffectOriginKind { return o.Kind }
