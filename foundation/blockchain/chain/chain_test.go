package chain_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/coreledger/coreledger/foundation/blockchain/chain"
	"github.com/coreledger/coreledger/foundation/blockchain/coin"
	"github.com/coreledger/coreledger/foundation/blockchain/hash"
	"github.com/coreledger/coreledger/foundation/blockchain/merkle"
	"github.com/coreledger/coreledger/foundation/blockchain/params"
	"github.com/coreledger/coreledger/foundation/blockchain/signature"
	"github.com/coreledger/coreledger/foundation/chainerr"
)

// maxTarget is the loosest possible 256-bit target (all bits set), used in
// tests so mining succeeds within a handful of nonce tries regardless of
// the consensus-parameter defaults' real difficulty.
func maxTarget() *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
}

// mine performs a brute-force nonce search against blk's header target.
func mine(t *testing.T, blk coin.Block) coin.Block {
	t.Helper()
	for i := uint64(0); i < 1_000_000; i++ {
		blk.Header.Nonce = i
		ok, err := blk.Header.MatchesTarget()
		if err != nil {
			t.Fatalf("hashing header: %s", err)
		}
		if ok {
			return blk
		}
	}
	t.Fatalf("failed to mine a block within the iteration budget")
	return coin.Block{}
}

// newChain builds a chain with its target overridden to maxTarget so tests
// can focus on chain-state semantics rather than actual proof-of-work
// difficulty. MinTarget is raised to maxTarget as well, so a retarget never
// clamps the target down to the much harder default minimum.
func newChain(t *testing.T) (*chain.Blockchain, params.Params) {
	t.Helper()
	p := params.Defaults()
	p.MinTarget = maxTarget().Text(16)
	bc := chain.New(p, nil)
	bc.SetTargetForTest(hash.FromBig(maxTarget()))
	return bc, p
}

func mustKey(t *testing.T) signature.PrivateKey {
	t.Helper()
	pk, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %s", err)
	}
	return pk
}

func Test_GenesisReward(t *testing.T) {
	bc, p := newChain(t)
	minerKey := mustKey(t)

	tmpl, err := bc.BuildTemplate(minerKey.Public())
	if err != nil {
		t.Fatalf("building template: %s", err)
	}

	solved := mine(t, tmpl)
	if err := bc.AppendBlock(solved); err != nil {
		t.Fatalf("appending genesis block: %s", err)
	}

	wantReward := p.BaseReward(0)
	if wantReward != 5_000_000_000 {
		t.Fatalf("sanity: expected default base reward 5e9, got %d", wantReward)
	}

	coinbase := solved.Transactions[0]
	sum, err := coinbase.OutputSum()
	if err != nil {
		t.Fatalf("summing coinbase outputs: %s", err)
	}
	if sum != wantReward {
		t.Fatalf("expected coinbase sum %d, got %d", wantReward, sum)
	}

	if bc.Height() != 1 {
		t.Fatalf("expected height 1 after genesis append, got %d", bc.Height())
	}
}

func Test_SimpleTransferThenMempoolDrains(t *testing.T) {
	bc, _ := newChain(t)
	minerKey := mustKey(t)
	recipientKey := mustKey(t)

	tmpl, err := bc.BuildTemplate(minerKey.Public())
	if err != nil {
		t.Fatalf("building template: %s", err)
	}
	genesis := mine(t, tmpl)
	if err := bc.AppendBlock(genesis); err != nil {
		t.Fatalf("appending genesis: %s", err)
	}

	coinbaseOut := genesis.Transactions[0].Outputs[0]
	outHash, err := coinbaseOut.Hash()
	if err != nil {
		t.Fatalf("hashing coinbase output: %s", err)
	}

	in, err := coin.NewInput(outHash, minerKey)
	if err != nil {
		t.Fatalf("building input: %s", err)
	}

	tx := coin.Transaction{
		Inputs: []coin.TransactionInput{in},
		Outputs: []coin.TransactionOutput{
			coin.NewOutput(3_000_000_000, recipientKey.Public()),
			coin.NewOutput(1_999_000_000, minerKey.Public()),
		},
	}

	if _, err := bc.SubmitTransaction(tx); err != nil {
		t.Fatalf("submitting transfer: %s", err)
	}
	if bc.MempoolLen() != 1 {
		t.Fatalf("expected 1 mempool entry after submission, got %d", bc.MempoolLen())
	}

	tmpl2, err := bc.BuildTemplate(minerKey.Public())
	if err != nil {
		t.Fatalf("building second template: %s", err)
	}
	solved2 := mine(t, tmpl2)
	if err := bc.AppendBlock(solved2); err != nil {
		t.Fatalf("appending second block: %s", err)
	}

	if bc.MempoolLen() != 0 {
		t.Fatalf("expected empty mempool after the transfer confirms, got %d", bc.MempoolLen())
	}
}

func Test_RBF_AcceptThenRejectLowerFee(t *testing.T) {
	bc, _ := newChain(t)
	minerKey := mustKey(t)
	bKey := mustKey(t)
	cKey := mustKey(t)

	tmpl, err := bc.BuildTemplate(minerKey.Public())
	if err != nil {
		t.Fatalf("building template: %s", err)
	}
	genesis := mine(t, tmpl)
	if err := bc.AppendBlock(genesis); err != nil {
		t.Fatalf("appending genesis: %s", err)
	}

	coinbaseOut := genesis.Transactions[0].Outputs[0]
	outHash, err := coinbaseOut.Hash()
	if err != nil {
		t.Fatalf("hashing coinbase output: %s", err)
	}

	buildSpend := func(fee uint64, recipient signature.PublicKey) coin.Transaction {
		in, err := coin.NewInput(outHash, minerKey)
		if err != nil {
			t.Fatalf("building input: %s", err)
		}
		return coin.Transaction{
			Inputs: []coin.TransactionInput{in},
			Outputs: []coin.TransactionOutput{
				coin.NewOutput(coinbaseOut.Value-fee, recipient),
			},
		}
	}

	txA := buildSpend(1_000_000, bKey.Public())
	if _, err := bc.SubmitTransaction(txA); err != nil {
		t.Fatalf("submitting tx_A: %s", err)
	}

	txB := buildSpend(2_000_000, cKey.Public())
	if _, err := bc.SubmitTransaction(txB); err != nil {
		t.Fatalf("submitting tx_B (RBF): %s", err)
	}
	if bc.MempoolLen() != 1 {
		t.Fatalf("expected tx_A to be evicted, mempool len = %d", bc.MempoolLen())
	}

	txC := buildSpend(1_000_000, bKey.Public())
	_, err = bc.SubmitTransaction(txC)
	if !chainerr.IsKind(err, chainerr.FeeNotHigherThanReplacement) {
		t.Fatalf("expected FeeNotHigherThanReplacement, got %v", err)
	}
	if bc.MempoolLen() != 1 {
		t.Fatalf("expected tx_B to remain alone in mempool, len = %d", bc.MempoolLen())
	}
}

func Test_EmptyMerkleRootIsZero(t *testing.T) {
	root, err := merkle.Root[coin.Transaction](nil)
	if err != nil {
		t.Fatalf("root: %s", err)
	}
	if !root.IsZero() {
		t.Fatalf("expected empty transaction list to produce the zero merkle root")
	}
}

func Test_RetargetQuadrupling(t *testing.T) {
	bc, p := newChain(t)
	minerKey := mustKey(t)

	// Start well below the all-ones ceiling so there is headroom to
	// observe an exact 4x widening rather than immediately saturating.
	startTarget := new(big.Int).Rsh(maxTarget(), 4)
	bc.SetTargetForTest(hash.FromBig(startTarget))

	base := time.Unix(1_700_000_000, 0).UTC()
	window := p.DifficultyUpdateInterval
	// The only timestamps the retarget formula reads are the window's
	// first and last block; fix their gap at exactly 4x the ideal window
	// duration and let the blocks in between tick by negligible amounts,
	// satisfying the monotonic-timestamp invariant without affecting the
	// computed ratio.
	idealWindowSeconds := int64(window * p.IdealBlockTime)
	totalSpanSeconds := 4 * idealWindowSeconds

	for i := uint64(0); i < window; i++ {
		var ts time.Time
		if i == window-1 {
			ts = base.Add(time.Duration(totalSpanSeconds) * time.Second)
		} else {
			ts = base.Add(time.Duration(i) * time.Millisecond)
		}

		restore := chain.SetNowForTest(func() time.Time { return ts })
		tmpl, err := bc.BuildTemplate(minerKey.Public())
		restore()
		if err != nil {
			t.Fatalf("building template at height %d: %s", i, err)
		}
		tmpl.Header.Timestamp = ts

		solved := mine(t, tmpl)
		if err := bc.AppendBlock(solved); err != nil {
			t.Fatalf("appending block at height %d: %s", i, err)
		}
	}

	want := new(big.Int).Mul(startTarget, big.NewInt(4))
	if bc.Target().Big().Cmp(want) != 0 {
		t.Fatalf("expected target to widen to exactly 4x, got %s want %s", bc.Target(), want)
	}
}

func Test_HalvingAtHeight210(t *testing.T) {
	bc, p := newChain(t)
	minerKey := mustKey(t)

	// Mine straight through the first halving boundary. The target starts
	// at maxTarget and each retarget can only tighten it 4x, so every
	// block is found within a few hundred nonces even under `go test`.
	var last coin.Block
	for h := uint64(0); h <= p.HalvingInterval; h++ {
		tmpl, err := bc.BuildTemplate(minerKey.Public())
		if err != nil {
			t.Fatalf("building template at height %d: %s", h, err)
		}
		solved := mine(t, tmpl)
		if err := bc.AppendBlock(solved); err != nil {
			t.Fatalf("appending block at height %d: %s", h, err)
		}
		last = solved
	}

	sum, err := last.Transactions[0].OutputSum()
	if err != nil {
		t.Fatalf("summing coinbase outputs: %s", err)
	}
	if sum != 2_500_000_000 {
		t.Fatalf("expected coinbase at height %d to pay 2.5e9 (post-halving), got %d", p.HalvingInterval, sum)
	}
}

func Test_ResubmittingACommittedBlockFailsInvalidPrevHash(t *testing.T) {
	bc, _ := newChain(t)
	minerKey := mustKey(t)

	tmpl, err := bc.BuildTemplate(minerKey.Public())
	if err != nil {
		t.Fatalf("building template: %s", err)
	}
	genesis := mine(t, tmpl)
	if err := bc.AppendBlock(genesis); err != nil {
		t.Fatalf("appending genesis: %s", err)
	}

	heightBefore := bc.Height()
	if err := bc.AppendBlock(genesis); !chainerr.IsKind(err, chainerr.InvalidPrevHash) {
		t.Fatalf("expected re-appending the committed block to fail InvalidPrevHash, got %v", err)
	}
	if bc.Height() != heightBefore {
		t.Fatalf("chain state mutated by a rejected re-submission: height went from %d to %d", heightBefore, bc.Height())
	}
}
