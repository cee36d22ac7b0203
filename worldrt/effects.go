package worldrt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/luxfi/agentworld/proto"
)

// EffectHandler performs the actual side effect for an allowed intent and
// returns the receipt to record. World never calls out to the network or
// filesystem itself; it only decides whether an intent is allowed and
// delegates execution to handler.
type EffectHandler func(intent proto.EffectIntent) proto.EffectReceipt

// ReceiptSigner signs and verifies EffectReceipts with HMAC-SHA256 over a
// shared secret, matching the reference signer's hmac_sha256 scheme. There
// is no asymmetric requirement here: receipts are produced and consumed by
// the same world, so a symmetric MAC is sufficient and is what the spec
// names explicitly.
type ReceiptSigner struct {
	secret []byte
}

// NewReceiptSigner returns a signer keyed by secret. secret should be
// generated once per world and held alongside its identity material.
func NewReceiptSigner(secret []byte) *ReceiptSigner {
	return &ReceiptSigner{secret: append([]byte(nil), secret...)}
}

// Sign computes the HMAC-SHA256 over receipt's content (everything but its
// own Signature field, which would make the payload self-referential).
func (s *ReceiptSigner) Sign(receipt proto.EffectReceipt) *proto.ReceiptSignature {
	sum := s.mac(receipt)
	return &proto.ReceiptSignature{Algorithm: proto.SigHmacSha256, SignatureHex: fmt.Sprintf("%x", sum)}
}

// Verify reports whether receipt carries a valid HMAC-SHA256 signature
// produced by this same signer.
func (s *ReceiptSigner) Verify(receipt proto.EffectReceipt) bool {
	if receipt.Signature == nil || receipt.Signature.Algorithm != proto.SigHmacSha256 {
		return false
	}
	got, err := hex.DecodeString(receipt.Signature.SignatureHex)
	if err != nil {
		return false
	}
	signed := receipt
	signed.Signature = nil
	return hmac.Equal(got, s.mac(signed))
}

func (s *ReceiptSigner) mac(receipt proto.EffectReceipt) []byte {
	receipt.Signature = nil
	payload, _ := proto.Marshal(receipt)
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

// SetEffectMaxInflight bounds how many dispatched intents may sit in the
// inflight set awaiting a receipt at once. 0 means unbounded.
func (w *World) SetEffectMaxInflight(n int) { w.effectMaxInflight = n }

// SetReceiptSigner installs the signer used to sign every receipt ingested
// via IngestReceipt. A nil signer (the default) leaves receipts unsigned.
func (w *World) SetReceiptSigner(signer *ReceiptSigner) { w.receiptSigner = signer }

// DispatchBlocked returns the number of times TakeNextEffect declined to
// dispatch because the inflight set was already at capacity.
func (w *World) DispatchBlocked() uint64 { return w.dispatchBlocked }

// RequestEffect queues an effect intent for dispatch on a future
// TakeNextEffect/DispatchEffects call and returns its allocated IntentID.
func (w *World) RequestEffect(kind string, params []byte, capRef string, origin proto.EffectOrigin) proto.IntentID {
	id := w.allocateIntentID()
	w.pendingEffects = append(w.pendingEffects, proto.EffectIntent{
		IntentID: id, Kind: kind, Params: params, CapRef: capRef, Origin: origin,
	})
	return id
}

// TakeNextEffect pops and evaluates the oldest pending intent. If the
// inflight set is already at effectMaxInflight capacity, it blocks
// dispatch entirely: the intent stays queued, dispatchBlocked is
// incremented, and ok is false with no events produced. Otherwise it
// always journals a policy decision; on Allow it additionally admits the
// intent into the inflight set and journals an EffectQueued event, and ok
// is true. On Deny, ok is false but the policy event is still returned.
func (w *World) TakeNextEffect() (intent proto.EffectIntent, events []proto.WorldEvent, ok bool) {
	if len(w.pendingEffects) == 0 {
		return proto.EffectIntent{}, nil, false
	}
	if w.effectMaxInflight > 0 && len(w.inflightEffects) >= w.effectMaxInflight {
		w.dispatchBlocked++
		return proto.EffectIntent{}, nil, false
	}

	intent = w.pendingEffects[0]
	w.pendingEffects = w.pendingEffects[1:]

	decision := w.evaluateEffect(intent)
	record := proto.RecordFromIntent(intent, decision)
	id := w.allocateEventID()
	policyEvent := proto.WorldEvent{
		ID: id, At: w.state.Time,
		CausedBy: proto.CausedBy{Kind: proto.CausedByEffect, IntentID: intent.IntentID},
		Body:     proto.WorldEventBody{Kind: proto.WEPolicy, Policy: &record},
	}
	w.journal.Append(policyEvent)
	events = append(events, policyEvent)

	if !decision.IsAllowed() {
		return intent, events, false
	}

	w.inflightEffects[intentKey(intent.IntentID)] = intent
	queued := proto.EffectQueued{
		IntentID: intent.IntentID, Kind: intent.Kind, CapRef: intent.CapRef,
		OriginKind: intent.Origin.Kind, QueuedAt: w.state.Time,
	}
	qid := w.allocateEventID()
	queuedEvent := proto.WorldEvent{
		ID: qid, At: w.state.Time,
		CausedBy: proto.CausedBy{Kind: proto.CausedByEffect, IntentID: intent.IntentID},
		Body:     proto.WorldEventBody{Kind: proto.WEEffect, Effect: &queued},
	}
	w.journal.Append(queuedEvent)
	events = append(events, queuedEvent)

	return intent, events, true
}

// IngestReceipt records the outcome of a dispatched effect. It fails with
// a conflict error ("receipt_unknown_intent") if receipt.IntentID is not
// currently inflight — either it was never queued, or a receipt for it was
// already ingested. On success the intent leaves the inflight set, the
// receipt is signed by the installed ReceiptSigner (if any), and a
// ReceiptAppended event is journaled and returned.
func (w *World) IngestReceipt(receipt proto.EffectReceipt) (proto.WorldEvent, error) {
	key := intentKey(receipt.IntentID)
	if _, ok := w.inflightEffects[key]; !ok {
		return proto.WorldEvent{}, proto.NewError(proto.ErrConflict, "worldrt.IngestReceipt", "receipt_unknown_intent")
	}
	delete(w.inflightEffects, key)

	if w.receiptSigner != nil {
		receipt.Signature = w.receiptSigner.Sign(receipt)
	}

	id := w.allocateEventID()
	event := proto.WorldEvent{
		ID: id, At: w.state.Time,
		CausedBy: proto.CausedBy{Kind: proto.CausedByEffect, IntentID: receipt.IntentID},
		Body:     proto.WorldEventBody{Kind: proto.WEReceipt, Receipt: &receipt},
	}
	w.journal.Append(event)
	return event, nil
}

// DispatchEffects drains the pending effect queue through
// TakeNextEffect/IngestReceipt, calling handler for every intent admitted
// to the inflight set and journaling its receipt. It stops as soon as
// TakeNextEffect reports the inflight set is at capacity, leaving any
// remaining intents queued for a later call.
func (w *World) DispatchEffects(handler EffectHandler) []proto.WorldEvent {
	var emitted []proto.WorldEvent
	for len(w.pendingEffects) > 0 {
		intent, events, dispatched := w.TakeNextEffect()
		if events == nil && !dispatched {
			break // inflight set at capacity; wait for receipts before taking more
		}
		emitted = append(emitted, events...)
		if !dispatched {
			continue // denied: policy event already recorded, nothing to hand to handler
		}
		receipt := handler(intent)
		receiptEvent, err := w.IngestReceipt(receipt)
		if err != nil {
			continue
		}
		emitted = append(emitted, receiptEvent)
	}
	return emitted
}

// evaluateEffect applies the active PolicySet, then narrows an Allow
// decision further by the named capability's Allows/IsExpired checks: a
// policy Allow with no matching, unexpired capability grant is still
// denied. This two-layer check matches the reference implementation's
// "policy decides the class, capability decides the instance" split.
func (w *World) evaluateEffect(intent proto.EffectIntent) proto.PolicyDecision {
	decision := w.policies.Decide(intent)
	if !decision.IsAllowed() {
		return decision
	}
	grant, ok := w.capabilities[intent.CapRef]
	if !ok {
		return proto.PolicyDecision{Kind: proto.PolicyDeny, Reason: "capability_missing"}
	}
	if grant.IsExpired(w.state.Time) {
		return proto.PolicyDecision{Kind: proto.PolicyDeny, Reason: "capability_expired"}
	}
	if !grant.Allows(intent.Kind) {
		return proto.PolicyDecision{Kind: proto.PolicyDeny, Reason: "capability_does_not_allow_kind"}
	}
	return decision
}

func intentKey(id proto.IntentID) string {
	b, _ := proto.Marshal(id)
	return string(b)
}
