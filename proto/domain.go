package proto

// GeoPos is a position in the world's coordinate space.
type GeoPos struct {
	X float64 `cbor:"x"`
	Y float64 `cbor:"y"`
	Z float64 `cbor:"z"`
}

// Submitter identifies who submitted an action, used for capability checks.
type Submitter struct {
	Kind    SubmitterKind `cbor:"kind"`
	AgentID string        `cbor:"agent_id,omitempty"`
	Player  string        `cbor:"player,omitempty"`
}

// SubmitterKind tags the variant of Submitter.
type SubmitterKind string

const (
	SubmitterSystem SubmitterKind = "system"
	SubmitterAgent  SubmitterKind = "agent"
	SubmitterPlayer SubmitterKind = "player"
)

// MaterialLedgerIDKind tags the variant of MaterialLedgerID.
type MaterialLedgerIDKind string

const (
	LedgerWorld   MaterialLedgerIDKind = "world"
	LedgerAgent   MaterialLedgerIDKind = "agent"
	LedgerSite    MaterialLedgerIDKind = "site"
	LedgerFactory MaterialLedgerIDKind = "factory"
)

// MaterialLedgerID = World | Agent(id) | Site(id) | Factory(id). Rendered
// and parsed as "world", "agent:<id>", "site:<id>", "factory:<id>" so it can
// serve as a sorted map key and a stable CBOR text value.
type MaterialLedgerID struct {
	Kind MaterialLedgerIDKind `cbor:"kind"`
	ID   string               `cbor:"id,omitempty"`
}

func WorldLedger() MaterialLedgerID { return MaterialLedgerID{Kind: LedgerWorld} }
func AgentLedger(id string) MaterialLedgerID {
	return MaterialLedgerID{Kind: LedgerAgent, ID: id}
}
func SiteLedger(id string) MaterialLedgerID {
	return MaterialLedgerID{Kind: LedgerSite, ID: id}
}
func FactoryLedger(id string) MaterialLedgerID {
	return MaterialLedgerID{Kind: LedgerFactory, ID: id}
}

// String renders the canonical textual form used in sorted iteration and
// audit logs.
func (m MaterialLedgerID) String() string {
	switch m.Kind {
	case LedgerWorld:
		return "world"
	case LedgerAgent:
		return "agent:" + m.ID
	case LedgerSite:
		return "site:" + m.ID
	case LedgerFactory:
		return "factory:" + m.ID
	default:
		return "invalid:" + m.ID
	}
}

// ActionKind tags the variant of Action.
type ActionKind string

const (
	ActionRegisterAgent     ActionKind = "register_agent"
	ActionMoveAgent         ActionKind = "move_agent"
	ActionTransferResource  ActionKind = "transfer_resource"
	ActionPowerOrder        ActionKind = "power_order"
	ActionFactoryBuild      ActionKind = "factory_build"
	ActionScheduleRecipe    ActionKind = "schedule_recipe"
	ActionModuleAction      ActionKind = "module_action"
	ActionProposeManifest   ActionKind = "propose_manifest"
	ActionApproveProposal   ActionKind = "approve_proposal"
	ActionApplyProposal     ActionKind = "apply_proposal"
)

// Action is a tagged union over everything that can be submitted to a world.
type Action struct {
	Kind ActionKind `cbor:"kind"`

	// register_agent / move_agent
	AgentID string  `cbor:"agent_id,omitempty"`
	Pos     GeoPos  `cbor:"pos,omitempty"`
	To      GeoPos  `cbor:"to,omitempty"`

	// transfer_resource
	FromLedger MaterialLedgerID `cbor:"from_ledger,omitempty"`
	ToLedger   MaterialLedgerID `cbor:"to_ledger,omitempty"`
	Resource   string           `cbor:"resource,omitempty"`
	Amount     int64            `cbor:"amount,omitempty"`

	// factory_build / schedule_recipe
	FactoryID string `cbor:"factory_id,omitempty"`
	RecipeID  string `cbor:"recipe_id,omitempty"`
	ReadyAt   WorldTime `cbor:"ready_at,omitempty"`
	Priority  int32     `cbor:"priority,omitempty"`
	JobID     string    `cbor:"job_id,omitempty"`

	// module_action
	ModuleID    string `cbor:"module_id,omitempty"`
	ActionBytes []byte `cbor:"action_bytes,omitempty"`

	// governance
	ProposalID    ProposalID `cbor:"proposal_id,omitempty"`
	Author        string     `cbor:"author,omitempty"`
	ManifestPatch []PatchOp  `cbor:"manifest_patch,omitempty"`
	Approver      string     `cbor:"approver,omitempty"`
	Certificate   *GovernanceFinalityCertificate `cbor:"certificate,omitempty"`
}

// ActionEnvelope pairs an ActionID with the action and records who
// submitted it.
type ActionEnvelope struct {
	ID        ActionID  `cbor:"id"`
	Action    Action    `cbor:"action"`
	Submitter Submitter `cbor:"submitter"`
}

// RejectReasonKind tags the variant of RejectReason.
type RejectReasonKind string

const (
	RejectRuleDenied        RejectReasonKind = "rule_denied"
	RejectAgentNotFound     RejectReasonKind = "agent_not_found"
	RejectAgentAlreadyExist RejectReasonKind = "agent_already_exists"
	RejectInvalidAmount     RejectReasonKind = "invalid_amount"
	RejectInsufficientBal   RejectReasonKind = "insufficient_balance"
)

// RejectReason explains why an action did not produce its intended event.
type RejectReason struct {
	Kind    RejectReasonKind `cbor:"kind"`
	AgentID string           `cbor:"agent_id,omitempty"`
	Notes   []string         `cbor:"notes,omitempty"`
}

// DomainEventKind tags the variant of DomainEvent.
type DomainEventKind string

const (
	EvAgentRegistered     DomainEventKind = "agent_registered"
	EvAgentMoved          DomainEventKind = "agent_moved"
	EvResourceTransferred DomainEventKind = "resource_transferred"
	EvRecipeCompleted     DomainEventKind = "recipe_completed"
	EvFactoryBuildQueued  DomainEventKind = "factory_build_queued"
	EvTransitArrived      DomainEventKind = "transit_arrived"
	EvActionRejected      DomainEventKind = "action_rejected"
)

// DomainEvent is the semantic result of applying an action: a pure function
// of prior state + action + rules.
type DomainEvent struct {
	Kind DomainEventKind `cbor:"kind"`

	AgentID string `cbor:"agent_id,omitempty"`
	From    GeoPos `cbor:"from,omitempty"`
	To      GeoPos `cbor:"to,omitempty"`

	FromLedger MaterialLedgerID `cbor:"from_ledger,omitempty"`
	ToLedger   MaterialLedgerID `cbor:"to_ledger,omitempty"`
	Resource   string           `cbor:"resource,omitempty"`
	Amount     int64            `cbor:"amount,omitempty"`

	JobID string `cbor:"job_id,omitempty"`

	ActionID ActionID     `cbor:"action_id,omitempty"`
	Reason   RejectReason `cbor:"reason,omitempty"`
}

// AgentIDOf returns the agent this event should be routed to, or "" if the
// event is not agent-addressed (e.g. a rejection).
func (e DomainEvent) AgentIDOf() string {
	switch e.Kind {
	case EvAgentRegistered, EvAgentMoved:
		return e.AgentID
	default:
		return ""
	}
}

// CausedByKind tags the variant of CausedBy.
type CausedByKind string

const (
	CausedByAction CausedByKind = "action"
	CausedByEffect CausedByKind = "effect"
	CausedByNone   CausedByKind = "none"
)

// CausedBy records what triggered a WorldEvent, for audit purposes.
type CausedBy struct {
	Kind     CausedByKind `cbor:"kind"`
	ActionID ActionID     `cbor:"action_id,omitempty"`
	IntentID IntentID     `cbor:"intent_id,omitempty"`
}
