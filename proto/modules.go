package proto

import "strings"

// ModuleKind distinguishes builtin (host-native, no WASM) modules from
// sandboxed WASM modules.
type ModuleKind string

const (
	ModuleKindBuiltin ModuleKind = "builtin"
	ModuleKindWasm    ModuleKind = "wasm"
)

// ModuleRole describes what a module is allowed to observe and influence.
type ModuleRole string

const (
	ModuleRoleReducer  ModuleRole = "reducer"
	ModuleRoleObserver ModuleRole = "observer"
)

// ModuleLimits bounds the resources a single invocation of a module may
// consume before the host aborts it and records a Deny decision.
type ModuleLimits struct {
	MaxInstructions uint64 `cbor:"max_instructions"`
	MaxMemoryBytes  uint64 `cbor:"max_memory_bytes"`
	MaxWallMillis   uint64 `cbor:"max_wall_millis"`
}

// DefaultModuleLimits mirrors the host's baseline metering budget.
func DefaultModuleLimits() ModuleLimits {
	return ModuleLimits{
		MaxInstructions: 5_000_000,
		MaxMemoryBytes:  16 * 1024 * 1024,
		MaxWallMillis:   50,
	}
}

// ModuleSubscription names the DomainEventKinds a module's reducer wants
// delivered to it.
type ModuleSubscription struct {
	EventKinds []DomainEventKind `cbor:"event_kinds"`
}

// ModuleManifest is the immutable description of a module bound into the
// registry: what it is, what it may see, and what it may cost.
type ModuleManifest struct {
	ModuleID     string              `cbor:"module_id"`
	Kind         ModuleKind          `cbor:"kind"`
	Role         ModuleRole          `cbor:"role"`
	ArtifactHash string              `cbor:"artifact_hash,omitempty"` // blob-store content hash for wasm modules
	Limits       ModuleLimits        `cbor:"limits"`
	Subscription ModuleSubscription  `cbor:"subscription"`
	Capabilities []string            `cbor:"capabilities,omitempty"`
}

// ModuleRecord pairs a manifest with its activation state inside the
// registry.
type ModuleRecord struct {
	Manifest ModuleManifest `cbor:"manifest"`
	Active   bool           `cbor:"active"`
	Version  uint64         `cbor:"version"`
}

// ModuleRegistry is the append-mostly table of all modules ever bound to a
// world, keyed by ModuleID.
type ModuleRegistry struct {
	Modules map[string]ModuleRecord `cbor:"modules"`
}

// NewModuleRegistry returns an empty registry.
func NewModuleRegistry() ModuleRegistry {
	return ModuleRegistry{Modules: map[string]ModuleRecord{}}
}

// ModuleEventKind tags the variant of ModuleEvent.
type ModuleEventKind string

const (
	ModuleEventActivated   ModuleEventKind = "activated"
	ModuleEventDeactivated ModuleEventKind = "deactivated"
	ModuleEventUpgraded    ModuleEventKind = "upgraded"
)

// ModuleActivation records a module entering service.
type ModuleActivation struct {
	ModuleID string `cbor:"module_id"`
	Version  uint64 `cbor:"version"`
}

// ModuleDeactivation records a module leaving service.
type ModuleDeactivation struct {
	ModuleID string `cbor:"module_id"`
	Reason   string `cbor:"reason,omitempty"`
}

// ModuleUpgrade records an artifact swap for an existing module id.
type ModuleUpgrade struct {
	ModuleID        string `cbor:"module_id"`
	FromVersion     uint64 `cbor:"from_version"`
	ToVersion       uint64 `cbor:"to_version"`
	NewArtifactHash string `cbor:"new_artifact_hash,omitempty"`
}

// ModuleEvent is the audit-log projection of a registry mutation.
type ModuleEvent struct {
	Kind         ModuleEventKind      `cbor:"kind"`
	Activation   *ModuleActivation    `cbor:"activation,omitempty"`
	Deactivation *ModuleDeactivation  `cbor:"deactivation,omitempty"`
	Upgrade      *ModuleUpgrade       `cbor:"upgrade,omitempty"`
	At           WorldTime            `cbor:"at"`
}

// ModuleChangeSet batches registry mutations applied atomically by a
// governance-approved proposal or bootstrap step.
type ModuleChangeSet struct {
	Activate   []ModuleManifest `cbor:"activate,omitempty"`
	Deactivate []string         `cbor:"deactivate,omitempty"`
	Upgrade    []ModuleUpgrade  `cbor:"upgrade,omitempty"`
}

// RuleDecisionKind tags the variant of RuleDecision returned by a module
// reducer invocation.
type RuleDecisionKind string

const (
	RuleAllow  RuleDecisionKind = "allow"
	RuleDeny   RuleDecisionKind = "deny"
	RuleModify RuleDecisionKind = "modify"
)

// RuleDecision is what a module returns after observing an action or
// domain event: permit it unchanged, block it, or request an amendment.
// OverrideAction, when set on a Modify decision, is the whole Action that
// replaces the submitted one.
type RuleDecision struct {
	Kind          RuleDecisionKind `cbor:"kind"`
	DenyReason    string           `cbor:"deny_reason,omitempty"`
	OverrideAction *Action         `cbor:"override_action,omitempty"`
	CostCents     uint64           `cbor:"cost_cents,omitempty"`
	Notes         []string         `cbor:"notes,omitempty"`
}

// MergeRuleDecisions combines the decisions of every module that observed
// the same action, in module-id sorted order for determinism:
//   - any Deny absorbs all others into Deny, with deny reasons and notes
//     concatenated across every denying decision, not just the first
//   - two Modify decisions with differing override_action collapse to Deny
//   - otherwise Allow (or Modify, if any module requested it), with costs
//     summed and notes concatenated in order
func MergeRuleDecisions(decisions []RuleDecision) RuleDecision {
	if len(decisions) == 0 {
		return RuleDecision{Kind: RuleAllow}
	}
	var denyReasons []string
	var denyNotes []string
	denied := false
	for _, d := range decisions {
		if d.Kind != RuleDeny {
			continue
		}
		denied = true
		if d.DenyReason != "" {
			denyReasons = append(denyReasons, d.DenyReason)
		}
		denyNotes = append(denyNotes, d.Notes...)
	}
	if denied {
		return RuleDecision{Kind: RuleDeny, DenyReason: strings.Join(denyReasons, "; "), Notes: denyNotes}
	}

	merged := RuleDecision{Kind: RuleAllow}
	var overrideBytes []byte
	for _, d := range decisions {
		merged.CostCents += d.CostCents
		merged.Notes = append(merged.Notes, d.Notes...)
		if d.Kind != RuleModify || d.OverrideAction == nil {
			continue
		}
		encoded, err := Marshal(d.OverrideAction)
		if err != nil {
			return RuleDecision{Kind: RuleDeny, DenyReason: "invalid_override_action"}
		}
		if merged.OverrideAction == nil {
			merged.Kind = RuleModify
			merged.OverrideAction = d.OverrideAction
			overrideBytes = encoded
			continue
		}
		if string(encoded) != string(overrideBytes) {
			return RuleDecision{Kind: RuleDeny, DenyReason: "conflicting_overrides"}
		}
	}
	return merged
}
