package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"

	"github.com/coreledger/coreledger/app/services/node/handler"
	"github.com/coreledger/coreledger/app/services/node/handlers"
	"github.com/coreledger/coreledger/app/services/node/worker"
	"github.com/coreledger/coreledger/foundation/blockchain/chain"
	bcparams "github.com/coreledger/coreledger/foundation/blockchain/params"
	"github.com/coreledger/coreledger/foundation/events"
	"github.com/coreledger/coreledger/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program, set via build flags.
var build = "develop"

func main() {
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
		}
		P2P struct {
			Host       string   `conf:"default:0.0.0.0:9080"`
			KnownPeers []string `conf:"default:"`
		}
		State struct {
			MinerKeyPath string `conf:"default:zblock/miner.ecdsa"`
			SnapshotPath string `conf:"default:zblock/chain.snapshot"`
		}
		Worker struct {
			MempoolCleanupInterval time.Duration `conf:"default:30s"`
			SnapshotSaveInterval   time.Duration `conf:"default:1m"`
		}
		Consensus bcparams.Params
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Blockchain support

	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s)
		evts.Send(s)
	}

	var bc *chain.Blockchain
	if _, err := os.Stat(cfg.State.SnapshotPath); err == nil {
		bc, err = chain.Load(cfg.State.SnapshotPath, cfg.Consensus, ev)
		if err != nil {
			return fmt.Errorf("loading chain snapshot: %w", err)
		}
		log.Infow("startup", "status", "loaded snapshot", "height", bc.Height())
	} else {
		bc = chain.New(cfg.Consensus, ev)
		log.Infow("startup", "status", "starting with an empty chain")
	}

	w := worker.Run(bc, worker.Config{
		MempoolCleanupInterval: cfg.Worker.MempoolCleanupInterval,
		SnapshotSaveInterval:   cfg.Worker.SnapshotSaveInterval,
		SnapshotPath:           cfg.State.SnapshotPath,
	}, log)

	// =========================================================================
	// P2P service

	srv := handler.NewServer(bc, cfg.P2P.Host, log)

	ln, err := net.Listen("tcp", cfg.P2P.Host)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.P2P.Host, err)
	}

	go func() {
		log.Infow("startup", "status", "p2p listener started", "host", cfg.P2P.Host)
		if err := srv.Serve(ln); err != nil {
			log.Infow("shutdown", "status", "p2p listener closed", "ERROR", err)
		}
	}()

	if len(cfg.P2P.KnownPeers) > 0 {
		if err := srv.Bootstrap(cfg.P2P.KnownPeers); err != nil {
			log.Errorw("startup", "status", "bootstrap sync failed", "ERROR", err)
		}
	}

	// =========================================================================
	// Debug service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log, bc)
	eventsHandler := handlers.NewEventsHandler(log, evts)

	debugServeMux := http.NewServeMux()
	debugServeMux.Handle("/", debugMux)
	debugServeMux.Handle("/debug/events", eventsHandler)

	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugServeMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Shutdown

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	sig := <-shutdown
	log.Infow("shutdown", "status", "shutdown started", "signal", sig)
	defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

	evts.Shutdown()
	ln.Close()
	w.Shutdown()

	if err := bc.Save(cfg.State.SnapshotPath); err != nil {
		return fmt.Errorf("saving final snapshot: %w", err)
	}

	return nil
}
