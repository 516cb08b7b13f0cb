// Package handlers builds the node's debug HTTP mux: standard library
// profiling endpoints plus readiness/liveness checks. The node's real API
// is the binary P2P protocol served by app/services/node/handler, not
// HTTP — this surface exists only for operators.
package handlers

import (
	"encoding/json"
	"expvar"
	"net/http"
	"net/http/pprof"

	"github.com/dimfeld/httptreemux/v5"
	"go.uber.org/zap"

	"github.com/coreledger/coreledger/foundation/blockchain/chain"
)

// DebugStandardLibraryMux registers the standard library's pprof and
// expvar endpoints on a dedicated tree router rather than the package-level
// DefaultServeMux, so a dependency importing net/http/pprof for its side
// effects can't silently expose these routes on some other server.
func DebugStandardLibraryMux() *httptreemux.ContextMux {
	mux := httptreemux.NewContextMux()

	mux.Handle(http.MethodGet, "/debug/pprof/", pprof.Index)
	mux.Handle(http.MethodGet, "/debug/pprof/cmdline", pprof.Cmdline)
	mux.Handle(http.MethodGet, "/debug/pprof/profile", pprof.Profile)
	mux.Handle(http.MethodGet, "/debug/pprof/symbol", pprof.Symbol)
	mux.Handle(http.MethodGet, "/debug/pprof/trace", pprof.Trace)
	mux.Handle(http.MethodGet, "/debug/vars", expvar.Handler().ServeHTTP)

	return mux
}

// checks bundles the handlers behind /debug/readiness and /debug/liveness.
type checks struct {
	build string
	log   *zap.SugaredLogger
	bc    *chain.Blockchain
}

// readiness reports whether the node is ready to accept connections: for
// this service that simply means the chain engine exists and is
// accessible, since there is no database connection pool to probe.
func (c checks) readiness(w http.ResponseWriter, r *http.Request) {
	status := struct {
		Status string `json:"status"`
		Height uint64 `json:"height"`
	}{
		Status: "ok",
		Height: c.bc.Height(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		c.log.Errorw("readiness", "ERROR", err)
	}
}

// liveness reports that the process is up, along with its build version.
func (c checks) liveness(w http.ResponseWriter, r *http.Request) {
	status := struct {
		Status string `json:"status"`
		Build  string `json:"build"`
	}{
		Status: "up",
		Build:  c.build,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		c.log.Errorw("liveness", "ERROR", err)
	}
}

// DebugMux registers the standard library debug routes plus the node's
// readiness/liveness checks.
func DebugMux(build string, log *zap.SugaredLogger, bc *chain.Blockchain) http.Handler {
	mux := DebugStandardLibraryMux()

	c := checks{build: build, log: log, bc: bc}
	mux.Handle(http.MethodGet, "/debug/readiness", c.readiness)
	mux.Handle(http.MethodGet, "/debug/liveness", c.liveness)

	return mux
}
