package chain

import (
	"math/big"

	"github.com/coreledger/coreledger/foundation/blockchain/hash"
)

// retarget recomputes bc.target after a block bringing the chain to
// newHeight, per spec §4.6. Callers must hold bc.mu for writing and must
// only call this when params.IsRetargetHeight(newHeight) holds.
func (bc *Blockchain) retarget(newHeight uint64) {
	window := bc.params.DifficultyUpdateInterval
	first := bc.blocks[newHeight-window]
	last := bc.blocks[newHeight-1]

	actual := last.Header.Timestamp.Unix() - first.Header.Timestamp.Unix()
	if actual < 1 {
		actual = 1
	}
	ideal := int64(window) * int64(bc.params.IdealBlockTime)

	bc.target = RetargetOnce(bc.target, actual, ideal, bc.params.MinTargetValue())
	bc.evHandler("chain: retargeted at height %d, new target %s", newHeight, bc.target)
}

// RetargetOnce applies the spec §4.6 retarget formula in isolation, so it
// can be unit-tested and reused by UTXO-rebuild-by-replay (§4.8) without a
// live Blockchain.
//
//	new_target = current_target * (actualSeconds / idealSeconds)
//
// clamped to [current_target/4, current_target*4], then to [1, minTarget].
func RetargetOnce(current hash.Hash256, actualSeconds, idealSeconds int64, minTarget *big.Int) hash.Hash256 {
	if actualSeconds < 1 {
		actualSeconds = 1
	}

	cur := current.Big()
	numerator := new(big.Int).Mul(cur, big.NewInt(actualSeconds))
	newTarget := new(big.Int).Div(numerator, big.NewInt(idealSeconds))

	lowerClamp := new(big.Int).Div(cur, big.NewInt(4))
	upperClamp := new(big.Int).Mul(cur, big.NewInt(4))

	if newTarget.Cmp(lowerClamp) < 0 {
		newTarget = lowerClamp
	}
	if newTarget.Cmp(upperClamp) > 0 {
		newTarget = upperClamp
	}

	one := big.NewInt(1)
	if newTarget.Cmp(one) < 0 {
		newTarget = one
	}
	if newTarget.Cmp(minTarget) > 0 {
		newTarget = minTarget
	}

	return hash.FromBig(newTarget)
}
