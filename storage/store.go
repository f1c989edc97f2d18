package storage

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/cyphera/spend-permission-manager/types"
)

// Flag is a write-once-effective boolean. The tagged form makes the
// unset/set distinction explicit instead of leaning on zero-value false.
type Flag int

const (
	FlagUnset Flag = iota
	FlagSet
)

// Store holds all persisted permission state, keyed by the 256-bit permission
// hash: approval flag, revocation flag, and the most recently touched spend
// period. Entries are created on first write and never deleted; flags only
// ever flip from unset to set.
type Store interface {
	Approval(hash common.Hash) Flag
	SetApproved(hash common.Hash)

	Revocation(hash common.Hash) Flag
	SetRevoked(hash common.Hash)

	LastPeriod(hash common.Hash) (types.PeriodSpend, bool)
	SetLastPeriod(hash common.Hash, period types.PeriodSpend)
}
