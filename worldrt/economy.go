package worldrt

import (
	"math"

	"github.com/luxfi/agentworld/proto"
)

// Economy holds every material ledger in a world, keyed by its rendered
// MaterialLedgerID string so balances sort deterministically.
type Economy struct {
	Balances map[string]map[string]int64 `cbor:"balances"` // ledger -> resource -> amount
}

// NewEconomy returns an empty economy.
func NewEconomy() Economy {
	return Economy{Balances: map[string]map[string]int64{}}
}

// Clone deep-copies the economy.
func (e Economy) Clone() Economy {
	out := Economy{Balances: make(map[string]map[string]int64, len(e.Balances))}
	for ledger, resources := range e.Balances {
		cp := make(map[string]int64, len(resources))
		for res, amt := range resources {
			cp[res] = amt
		}
		out.Balances[ledger] = cp
	}
	return out
}

// Balance returns the current amount of resource held in ledger.
func (e Economy) Balance(ledger proto.MaterialLedgerID, resource string) int64 {
	resources, ok := e.Balances[ledger.String()]
	if !ok {
		return 0
	}
	return resources[resource]
}

func (e *Economy) set(ledger proto.MaterialLedgerID, resource string, amount int64) {
	key := ledger.String()
	resources, ok := e.Balances[key]
	if !ok {
		resources = map[string]int64{}
		e.Balances[key] = resources
	}
	if amount == 0 {
		delete(resources, resource)
		return
	}
	resources[resource] = amount
}

// Credit adds amount to ledger's resource balance, saturating at
// math.MaxInt64 rather than overflowing. Every ledger, World included, is
// bound by this same rule: no ledger is an unbounded source.
func (e *Economy) Credit(ledger proto.MaterialLedgerID, resource string, amount int64) {
	if amount <= 0 {
		return
	}
	current := e.Balance(ledger, resource)
	sum := current + amount
	if sum < current { // overflowed past math.MaxInt64
		sum = math.MaxInt64
	}
	e.set(ledger, resource, sum)
}

// TryDebit removes amount from ledger's resource balance, failing with
// false rather than going negative. Every ledger is bound by the same
// non-negative invariant; World is funded only through Seed.
func (e *Economy) TryDebit(ledger proto.MaterialLedgerID, resource string, amount int64) bool {
	if amount <= 0 {
		return false
	}
	current := e.Balance(ledger, resource)
	if current < amount {
		return false
	}
	e.set(ledger, resource, current-amount)
	return true
}

// Transfer moves amount of resource from -> to, atomically: it either
// fully succeeds or leaves both ledgers untouched. Transfers never create
// or destroy mass: what leaves from is exactly what arrives at to.
func (e *Economy) Transfer(from, to proto.MaterialLedgerID, resource string, amount int64) bool {
	if amount <= 0 {
		return false
	}
	if !e.TryDebit(from, resource, amount) {
		return false
	}
	e.Credit(to, resource, amount)
	return true
}

// Seed mints amount of resource directly into ledger, bypassing the
// transfer pipeline entirely. It is the sole mass-creation primitive in
// the economy and is intended for genesis/bootstrap only: every other path
// to moving resources (Transfer) conserves total mass.
func (e *Economy) Seed(ledger proto.MaterialLedgerID, resource string, amount int64) {
	e.Credit(ledger, resource, amount)
}
