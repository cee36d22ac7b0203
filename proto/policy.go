package proto

// PolicyDecisionKind tags the variant of PolicyDecision.
type PolicyDecisionKind string

const (
	PolicyAllow PolicyDecisionKind = "allow"
	PolicyDeny  PolicyDecisionKind = "deny"
)

// PolicyDecision is the outcome of evaluating a PolicySet against an
// EffectIntent.
type PolicyDecision struct {
	Kind   PolicyDecisionKind `cbor:"kind"`
	Reason string             `cbor:"reason,omitempty"`
}

// IsAllowed reports whether the decision permits the effect.
func (d PolicyDecision) IsAllowed() bool { return d.Kind == PolicyAllow }

// PolicyWhen describes the match conditions for a PolicyRule. A nil field
// matches anything.
type PolicyWhen struct {
	EffectKind *string           `cbor:"effect_kind,omitempty"`
	OriginKind *EffectOriginKind `cbor:"origin_kind,omitempty"`
	CapName    *string           `cbor:"cap_name,omitempty"`
}

// Matches reports whether intent satisfies every non-nil condition.
func (w PolicyWhen) Matches(intent EffectIntent) bool {
	if w.EffectKind != nil && *w.EffectKind != intent.Kind {
		return false
	}
	if w.OriginKind != nil && *w.OriginKind != intent.Origin.Kind {
		return false
	}
	if w.CapName != nil && *w.CapName != intent.CapRef {
		return false
	}
	return true
}

// PolicyRule pairs a match condition with the decision to apply.
type PolicyRule struct {
	When     PolicyWhen     `cbor:"when"`
	Decision PolicyDecision `cbor:"decision"`
}

// PolicySet evaluates rules in order; the first match wins. No match is
// default_deny, making Decide total.
type PolicySet struct {
	Rules []PolicyRule `cbor:"rules"`
}

// Decide is a total function over any EffectIntent.
func (p PolicySet) Decide(intent EffectIntent) PolicyDecision {
	for _, rule := range p.Rules {
		if rule.When.Matches(intent) {
			return rule.Decision
		}
	}
	return PolicyDecision{Kind: PolicyDeny, Reason: "default_deny"}
}

// AllowAllPolicy is a single catch-all Allow rule, used in tests.
func AllowAllPolicy() PolicySet {
	return PolicySet{Rules: []PolicyRule{{Decision: PolicyDecision{Kind: PolicyAllow}}}}
}

// PolicyDecisionRecord is the audit-trail projection of a Decide call.
type PolicyDecisionRecord struct {
	IntentID   IntentID           `cbor:"intent_id"`
	Decision   PolicyDecision     `cbor:"decision"`
	EffectKind string             `cbor:"effect_kind"`
	CapRef     string             `cbor:"cap_ref"`
	OriginKind EffectOriginKind   `cbor:"origin_kind"`
}

// RecordFromIntent builds the audit record for a decision over intent.
func RecordFromIntent(intent EffectIntent, decision PolicyDecision) PolicyDecisionRecord {
	return PolicyDecisionRecord{
		IntentID:   intent.IntentID,
		Decision:   decision,
		EffectKind: intent.Kind,
		CapRef:     intent.CapRef,
		OriginKind: intent.Origin.Kind,
	}
}
