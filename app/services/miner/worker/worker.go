// Package worker implements the miner's CPU/IO thread split of spec §4.11:
// a CPU-bound nonce-search loop and an I/O loop that owns the node
// connection, communicating through a single-producer/single-consumer
// channel of solved blocks.
//
// This is grounded on the teacher's foundation/blockchain/worker/mining.go
// runMiningOperation: a cancellable background goroutine signalled by a
// shared flag, reporting progress through the process's zap logger. The
// teacher mines in-process against
// local state; here the CPU thread mines a template snapshot fetched over
// the wire and the IO thread is a distinct goroutine rather than inline
// request handling, per the process split spec §5 requires.
package worker

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/coreledger/coreledger/foundation/blockchain/coin"
	"github.com/coreledger/coreledger/foundation/blockchain/signature"
	"github.com/coreledger/coreledger/foundation/blockchain/wire"
)

// Config controls the miner's batch size and timing.
type Config struct {
	BatchSize            uint64
	TemplateFetchInterval time.Duration
}

// template is the shared, mutex-guarded current candidate block the CPU
// thread mines against and the I/O thread refreshes.
type template struct {
	mu  sync.RWMutex
	blk coin.Block
	set bool
}

func (t *template) Set(blk coin.Block) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blk = blk
	t.set = true
}

func (t *template) Get() (coin.Block, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.blk, t.set
}

// Worker owns the miner's CPU and I/O goroutines.
type Worker struct {
	conn   net.Conn
	pk     signature.PublicKey
	cfg    Config
	log    *zap.SugaredLogger

	tmpl    template
	mining  atomic.Bool
	solved  chan coin.Block

	wg   sync.WaitGroup
	shut chan struct{}
}

// Run constructs a Worker over the already-open node connection conn and
// starts its CPU and I/O goroutines, blocking until both report they are
// running.
func Run(conn net.Conn, pk signature.PublicKey, cfg Config, log *zap.SugaredLogger) *Worker {
	w := &Worker{
		conn:   conn,
		pk:     pk,
		cfg:    cfg,
		log:    log,
		solved: make(chan coin.Block, 1),
		shut:   make(chan struct{}),
	}

	operations := []func(){
		w.cpuMiningOperation,
		w.ioOperation,
	}

	w.wg.Add(len(operations))
	started := make(chan struct{})
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			started <- struct{}{}
			op()
		}(op)
	}
	for range operations {
		<-started
	}

	return w
}

// Shutdown stops both goroutines and waits for them to exit.
func (w *Worker) Shutdown() {
	close(w.shut)
	w.wg.Wait()
	w.conn.Close()
}

func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}

// cpuMiningOperation is the CPU-bound thread: it reads the shared template
// snapshot and the shared mining-enabled flag, running a bounded-batch
// nonce search (spec §4.11) whenever mining is enabled, and pushes any
// solved block to the solved channel for the I/O thread to submit.
func (w *Worker) cpuMiningOperation() {
	for {
		if w.isShutdown() {
			return
		}

		if !w.mining.Load() {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		blk, ok := w.tmpl.Get()
		if !ok {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		solved, found := mineBatch(blk, w.cfg.BatchSize)
		if !found {
			continue
		}

		w.mining.Store(false)
		select {
		case w.solved <- solved:
		case <-w.shut:
			return
		}
	}
}

// mineBatch runs up to batchSize nonce-search iterations against blk's
// header target (spec §4.11).
func mineBatch(blk coin.Block, batchSize uint64) (coin.Block, bool) {
	for i := uint64(0); i < batchSize; i++ {
		if blk.Header.Nonce == ^uint64(0) {
			blk.Header.Nonce = 0
			blk.Header.Timestamp = time.Now().UTC()
		} else {
			blk.Header.Nonce++
		}

		id, err := blk.Header.Hash()
		if err != nil {
			return coin.Block{}, false
		}
		if id.MatchesTarget(blk.Header.Target) {
			return blk, true
		}
	}
	return coin.Block{}, false
}

// ioOperation is the I/O thread: it owns the node connection, periodically
// fetching a fresh template or validating the current one, and submits
// whatever the CPU thread solves.
func (w *Worker) ioOperation() {
	w.fetchTemplate()

	ticker := time.NewTicker(w.cfg.TemplateFetchInterval)
	defer ticker.Stop()

	for {
		select {
		case blk := <-w.solved:
			if err := wire.WriteFrame(w.conn, &wire.SubmitTemplate{Block: blk}); err != nil {
				w.log.Errorw("miner: submitting solved block", "ERROR", err)
				return
			}
			h, err := blk.Hash()
			if err == nil {
				w.log.Infow("miner: submitted block", "hash", h)
			}
			w.fetchTemplate()

		case <-ticker.C:
			if !w.mining.Load() {
				w.fetchTemplate()
				continue
			}
			w.revalidateTemplate()

		case <-w.shut:
			return
		}
	}
}

// fetchTemplate requests a fresh candidate block from the node and arms
// the mining-enabled flag.
func (w *Worker) fetchTemplate() {
	if err := wire.WriteFrame(w.conn, &wire.FetchTemplate{PK: w.pk}); err != nil {
		w.log.Errorw("miner: requesting template", "ERROR", err)
		return
	}

	msg, err := wire.ReadFrame(w.conn)
	if err != nil {
		w.log.Errorw("miner: reading template", "ERROR", err)
		return
	}

	tmpl, ok := msg.(*wire.Template)
	if !ok {
		w.log.Errorw("miner: unexpected reply to fetch_template", "type", msg)
		return
	}

	w.tmpl.Set(tmpl.Block)
	w.mining.Store(true)
}

// revalidateTemplate asks the node whether the current template is still
// buildable, clearing the mining flag if not (spec §4.11).
func (w *Worker) revalidateTemplate() {
	blk, ok := w.tmpl.Get()
	if !ok {
		return
	}

	if err := wire.WriteFrame(w.conn, &wire.ValidateTemplate{Block: blk}); err != nil {
		w.log.Errorw("miner: requesting template validation", "ERROR", err)
		return
	}

	msg, err := wire.ReadFrame(w.conn)
	if err != nil {
		w.log.Errorw("miner: reading template validity", "ERROR", err)
		return
	}

	validity, ok := msg.(*wire.TemplateValidity)
	if !ok {
		w.log.Errorw("miner: unexpected reply to validate_template", "type", msg)
		return
	}

	if !validity.Valid {
		w.mining.Store(false)
	}
}
