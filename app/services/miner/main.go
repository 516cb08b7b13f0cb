package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"

	minerworker "github.com/coreledger/coreledger/app/services/miner/worker"
	"github.com/coreledger/coreledger/foundation/blockchain/signature"
	"github.com/coreledger/coreledger/foundation/logger"
	"go.uber.org/zap"
)

var build = "develop"

func main() {
	log, err := logger.New("MINER")
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
	cfg := struct {
		conf.Version
		Node struct {
			Addr string `conf:"default:127.0.0.1:9080"`
		}
		Miner struct {
			KeyPath               string        `conf:"default:zblock/miner.ecdsa"`
			BatchSize             uint64        `conf:"default:500000"`
			TemplateFetchInterval time.Duration `conf:"default:5s"`
		}
	}{
		Version: conf.Version{Build: build, Desc: "copyright information here"},
	}

	const prefix = "MINER"
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

	privateKey, err := loadPrivateKey(cfg.Miner.KeyPath)
	if err != nil {
		return fmt.Errorf("loading miner key: %w", err)
	}

	conn, err := net.Dial("tcp", cfg.Node.Addr)
	if err != nil {
		return fmt.Errorf("connecting to node %s: %w", cfg.Node.Addr, err)
	}
	log.Infow("startup", "status", "connected to node", "addr", cfg.Node.Addr)

	w := minerworker.Run(conn, privateKey.Public(), minerworker.Config{
		BatchSize:             cfg.Miner.BatchSize,
		TemplateFetchInterval: cfg.Miner.TemplateFetchInterval,
	}, log)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	sig := <-shutdown
	log.Infow("shutdown", "status", "shutdown started", "signal", sig)
	defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

	w.Shutdown()
	return nil
}

// loadPrivateKey reads the fixed-width binary key form MarshalBinary
// produces (spec §6), written by the keygen tool.
func loadPrivateKey(path string) (signature.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return signature.PrivateKey{}, err
	}
	var pk signature.PrivateKey
	if err := pk.UnmarshalBinary(data); err != nil {
		return signature.PrivateKey{}, err
	}
	return pk, nil
}
