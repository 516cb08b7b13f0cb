// Package worker runs the node's background operations: periodic mempool
// cleanup and periodic chain-snapshot persistence (spec §4.12, §5).
//
// This keeps the teacher's Worker shape (foundation/blockchain/worker):
// one struct owning a shutdown channel and a WaitGroup, with one goroutine
// per ticker-driven operation, started together and joined on Shutdown.
package worker

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coreledger/coreledger/foundation/blockchain/chain"
)

// Config controls the worker's background intervals.
type Config struct {
	MempoolCleanupInterval time.Duration
	SnapshotSaveInterval   time.Duration
	SnapshotPath           string
}

// Worker owns the node's ticker-driven background goroutines.
type Worker struct {
	bc     *chain.Blockchain
	cfg    Config
	log    *zap.SugaredLogger
	wg     sync.WaitGroup
	shut   chan struct{}
}

// Run constructs a Worker and starts its background goroutines, blocking
// until all have confirmed they are running.
func Run(bc *chain.Blockchain, cfg Config, log *zap.SugaredLogger) *Worker {
	w := &Worker{
		bc:   bc,
		cfg:  cfg,
		log:  log,
		shut: make(chan struct{}),
	}

	operations := []func(){
		w.mempoolCleanupOperation,
		w.snapshotSaveOperation,
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

// Shutdown stops every background goroutine and waits for them to exit.
func (w *Worker) Shutdown() {
	w.log.Info("worker: shutdown: started")
	defer w.log.Info("worker: shutdown: completed")

	close(w.shut)
	w.wg.Wait()
}

func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}

func (w *Worker) mempoolCleanupOperation() {
	ticker := time.NewTicker(w.cfg.MempoolCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := w.bc.CleanupMempool(); n > 0 {
				w.log.Infow("worker: mempool cleanup", "evicted", n)
			}
		case <-w.shut:
			return
		}
		if w.isShutdown() {
			return
		}
	}
}

func (w *Worker) snapshotSaveOperation() {
	ticker := time.NewTicker(w.cfg.SnapshotSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.bc.Save(w.cfg.SnapshotPath); err != nil {
				w.log.Errorw("worker: snapshot save failed", "error", err)
				continue
			}
			w.log.Infow("worker: snapshot saved", "path", w.cfg.SnapshotPath)
		case <-w.shut:
			return
		}
		if w.isShutdown() {
			return
		}
	}
}
