// Package config centralizes the flag/env-var surface shared by the
// cmd/crible commands: the backend URL, the executor's worker/queue
// sizing, and the flags that mirror them as CRIBLE_* environment
// variables, per spec.md §6's "Environment variables mirror each flag"
// requirement.
package config

import (
	"fmt"
	"runtime"

	"github.com/lirsacc/crible/internal/backend"
	"github.com/lirsacc/crible/internal/executor"
)

// Environment variable names mirroring the CLI flags.
const (
	EnvBackend          = "CRIBLE_BACKEND"
	EnvBind             = "CRIBLE_BIND"
	EnvReadOnly         = "CRIBLE_READ_ONLY"
	EnvRefreshTimeout   = "CRIBLE_REFRESH_TIMEOUT"
	EnvThreadCount      = "CRIBLE_THREAD_COUNT"
	EnvRequestQueueSize = "CRIBLE_REQUEST_QUEUE_SIZE"
)

// DefaultBind is used when neither --listen nor CRIBLE_BIND is set.
const DefaultBind = "127.0.0.1:8080"

// Server bundles everything cmd/crible's serve command needs to stand up
// an Executor and HTTP listener.
type Server struct {
	BackendURL      string
	Bind            string
	ReadOnly        bool
	RefreshInterval int // milliseconds; 0 disables periodic reload
	Threads         int // 0 selects runtime.NumCPU()
	QueueSize       int // 0 selects Threads * 10
	Debug           bool
}

// ExecutorOptions translates the server config into executor.Options.
func (s Server) ExecutorOptions() executor.Options {
	return executor.Options{
		Workers:   s.Threads,
		QueueSize: s.QueueSize,
		ReadOnly:  s.ReadOnly,
	}
}

// Threads resolved for display/logging purposes (Options.withDefaults is
// unexported, so this mirrors its resolution for anything that needs the
// concrete worker count up front, e.g. a startup log line).
func (s Server) ResolvedThreads() int {
	if s.Threads > 0 {
		return s.Threads
	}
	return runtime.NumCPU()
}

// BuildBackend parses BackendURL and constructs the concrete Backend,
// sizing its connection pool (where applicable, e.g. Redis) to the
// server's worker count.
func (s Server) BuildBackend() (backend.Backend, error) {
	opts, err := backend.ParseURL(s.BackendURL)
	if err != nil {
		return nil, fmt.Errorf("config: invalid backend url: %w", err)
	}
	return opts.Build(s.ResolvedThreads())
}
