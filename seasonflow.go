// Package seasonflow provides a high-level façade over the season workflow
// controller and its services (session store, data loader, parameter
// extractor, confirmation gate, status sink & logging) for building retail
// season forecasting and allocation pipelines. Most applications interact
// with this package by:
//  1. Creating a SeasonFlow via New() (optionally overriding default in-memory services)
//  2. Starting one workflow per season via NewWorkflow(sessionID)
//  3. Driving the workflow: parameters, pre-season run, weekly observations
//
// All defaults are safe for local development and testing; production
// deployments typically supply a durable session store, a warehouse-backed
// loader, a model-backed extractor and a structured logger.
package seasonflow

import (
	"github.com/hupe1980/seasonflow/assemble"
	"github.com/hupe1980/seasonflow/config"
	"github.com/hupe1980/seasonflow/core"
	"github.com/hupe1980/seasonflow/extract"
	"github.com/hupe1980/seasonflow/logging"
	"github.com/hupe1980/seasonflow/session"
	"github.com/hupe1980/seasonflow/workflow"
)

// Options configures the SeasonFlow instance.
type Options struct {
	// Config carries timeouts and thresholds shared by every workflow.
	Config *config.Config

	// Store persists workflow sessions (defaults to in-memory).
	Store core.SessionStore

	// Loader supplies historical demand and store attributes (defaults to an
	// empty in-memory loader).
	Loader assemble.Loader

	// Extractor derives season parameters from strategy text. Optional;
	// workflows also accept typed parameters directly.
	Extractor extract.Extractor

	// Gate confirms opening plans (defaults to auto-approval).
	Gate workflow.ConfirmationGate

	// Sink receives per-stage status updates (defaults to discard).
	Sink core.StatusSink

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// SeasonFlow is the high-level façade aggregating the shared services from
// which per-season workflow controllers are constructed.
type SeasonFlow struct {
	opts Options
}

// New creates a SeasonFlow instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *SeasonFlow {
	opts := Options{
		Config: config.DefaultConfig(),
		Store:  session.NewInMemoryStore(),
		Loader: assemble.NewInMemoryLoader(),
		Gate:   workflow.AutoApproveGate{},
		Sink:   core.NoOpSink{},
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &SeasonFlow{opts: opts}
}

// NewWorkflow constructs a workflow controller for one season session. Each
// session gets its own handoff manager and execution log; sessions sharing a
// SeasonFlow share the store, loader and configuration.
func (s *SeasonFlow) NewWorkflow(sessionID string) (*workflow.Controller, error) {
	return workflow.NewController(sessionID, func(o *workflow.Options) {
		o.Config = s.opts.Config
		o.Store = s.opts.Store
		o.Loader = s.opts.Loader
		o.Extractor = s.opts.Extractor
		o.Gate = s.opts.Gate
		o.Sink = s.opts.Sink
		o.Logger = s.opts.Logger
	})
}

// Store exposes the shared session store, e.g. for inspection endpoints.
func (s *SeasonFlow) Store() core.SessionStore { return s.opts.Store }
