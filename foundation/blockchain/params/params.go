// Package params holds the consensus-parameter set every node and miner
// must agree on. Two nodes with different parameters form incompatible
// networks (spec §6).
//
// This repurposes the teacher's genesis package: instead of a JSON file of
// founder account balances (not applicable to a UTXO chain with no
// premine), it is a struct populated by ardanlabs/conf/v3 the same way the
// rest of the node's configuration is.
package params

import "math/big"

// Params is the full consensus-parameter set.
type Params struct {
	// InitialReward is the coinbase reward at height 0, denominated in whole
	// coins before scaling by Satoshis.
	InitialReward uint64 `conf:"default:50"`

	// HalvingInterval is the number of blocks between reward halvings.
	HalvingInterval uint64 `conf:"default:210"`

	// IdealBlockTime is the target seconds between blocks.
	IdealBlockTime uint64 `conf:"default:10"`

	// DifficultyUpdateInterval is the number of blocks between retargets.
	DifficultyUpdateInterval uint64 `conf:"default:50"`

	// MaxMempoolTransactionAge is the number of seconds a mempool entry may
	// sit unconfirmed before §4.7 cleanup evicts it.
	MaxMempoolTransactionAge uint64 `conf:"default:600"`

	// BlockTransactionCap is the maximum number of transactions (including
	// the coinbase) a template may contain.
	BlockTransactionCap int `conf:"default:20"`

	// MinTarget is the easiest allowed target, expressed as a hex string
	// since conf values must be primitive-typed; MinTargetValue converts
	// it to a big.Int.
	MinTarget string `conf:"default:00000000ffffffffffffffffffffffffffffffffffffffffffffffffffffffff"`
}

// Satoshis is the number of smallest divisible units per whole coin.
const Satoshis = 100_000_000

// Defaults returns the parameter set spec.md's scenarios are written
// against (§8): INITIAL_REWARD=50, HALVING_INTERVAL=210,
// IDEAL_BLOCK_TIME=10, DIFFICULTY_UPDATE_INTERVAL=50,
// BLOCK_TRANSACTION_CAP=20, MAX_MEMPOOL_TRANSACTION_AGE=600.
func Defaults() Params {
	return Params{
		InitialReward:            50,
		HalvingInterval:          210,
		IdealBlockTime:           10,
		DifficultyUpdateInterval: 50,
		MaxMempoolTransactionAge: 600,
		BlockTransactionCap:      20,
		MinTarget:                "00000000ffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
	}
}

// BaseReward computes base_reward(h) = (InitialReward * Satoshis) >>
// (h / HalvingInterval), saturating to 0 once the shift amount reaches or
// exceeds 64 (spec §4.6).
func (p Params) BaseReward(height uint64) uint64 {
	shift := height / p.HalvingInterval
	if shift >= 64 {
		return 0
	}
	return (p.InitialReward * Satoshis) >> shift
}

// MinTargetValue parses MinTarget into a big.Int on every call. It panics
// on malformed configuration; the first call happens when the chain is
// constructed, so a bad value fails at startup.
func (p Params) MinTargetValue() *big.Int {
	v, ok := new(big.Int).SetString(p.MinTarget, 16)
	if !ok {
		panic("params: MinTarget is not a valid hex string: " + p.MinTarget)
	}
	return v
}

// IsRetargetHeight reports whether height is a nonzero multiple of
// DifficultyUpdateInterval, i.e. a retarget boundary (spec §4.6).
func (p Params) IsRetargetHeight(height uint64) bool {
	return height > 0 && height%p.DifficultyUpdateInterval == 0
}
