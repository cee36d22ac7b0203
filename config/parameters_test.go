package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresetsAreValid(t *testing.T) {
	for name, p := range map[string]Parameters{
		"mainnet": Mainnet(),
		"testnet": Testnet(),
		"local":   Local(),
	} {
		require.NoErrorf(t, p.Validate(), "%s preset should validate", name)
	}
}

func TestValidateRejectsBadQuorum(t *testing.T) {
	p := Local()
	p.QuorumNumerator = 5
	p.QuorumDenominator = 3
	require.ErrorIs(t, p.Validate(), ErrInvalidQuorum)
}

func TestValidateRejectsLeaseShorterThanSlot(t *testing.T) {
	p := Local()
	p.LeaseDuration = p.SlotDuration / 2
	require.ErrorIs(t, p.Validate(), ErrLeaseBeforeSlot)
}
