package handoff

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/seasonflow/core"
	"github.com/hupe1980/seasonflow/logging"
)

// DefaultTimeout bounds a stage call when the caller does not supply one.
const DefaultTimeout = 30 * time.Second

// Options configures a Manager instance.
type Options struct {
	// DefaultTimeout bounds stage calls that pass a zero timeout.
	DefaultTimeout time.Duration

	// Log receives one record per call. Defaults to a fresh ExecutionLog.
	Log *core.ExecutionLog

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger
}

// Manager is the stage registry and executor. It is constructed once per
// workflow session and passed by reference to the controller; there is no
// process-global registry. Safe for concurrent use.
type Manager struct {
	mu             sync.RWMutex
	stages         map[string]Stage
	log            *core.ExecutionLog
	logger         logging.Logger
	defaultTimeout time.Duration
}

// New creates a Manager with optional overrides.
func New(optFns ...func(o *Options)) *Manager {
	opts := Options{
		DefaultTimeout: DefaultTimeout,
		Log:            core.NewExecutionLog(),
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{
		stages:         make(map[string]Stage),
		log:            opts.Log,
		logger:         opts.Logger,
		defaultTimeout: opts.DefaultTimeout,
	}
}

// Register makes a stage available for invocation by name. Registering the
// same name twice replaces the earlier stage.
func (m *Manager) Register(s Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages[s.Name()] = s
}

// Get retrieves a registered stage by name.
func (m *Manager) Get(name string) (Stage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stages[name]
	return s, ok
}

// Log returns the execution log shared by all calls on this manager.
func (m *Manager) Log() *core.ExecutionLog { return m.log }

// stageResult carries a handler outcome across the join channel.
type stageResult struct {
	out any
	err error
}

// Call executes one stage with a per-call timeout (0 means the manager
// default). Exactly one execution record is appended regardless of outcome.
//
// Errors:
//   - *core.NotRegisteredError when the name is unknown
//   - *core.StageTimeoutError when the handler exceeds the budget; the
//     handler's context is cancelled and any partial result discarded
//   - *core.StageExecutionError wrapping the handler's own error otherwise
func (m *Manager) Call(ctx context.Context, name string, input any, timeout time.Duration) (any, error) {
	stage, ok := m.Get(name)
	if !ok {
		return nil, &core.NotRegisteredError{Stage: name}
	}
	if timeout <= 0 {
		timeout = m.defaultTimeout
	}

	start := time.Now()
	m.logger.Debug("handoff.call.start", "stage", name, "timeout", timeout)

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultCh := make(chan stageResult, 1)
	go func() {
		out, err := stage.Execute(callCtx, input)
		resultCh <- stageResult{out: out, err: err}
	}()

	select {
	case <-callCtx.Done():
		dur := time.Since(start)
		if ctx.Err() != nil {
			// Caller cancellation, not a budget overrun.
			m.log.Append(core.ExecutionRecord{Stage: name, StartTime: start, Duration: dur, Status: core.StatusFailed, Detail: ctx.Err().Error()})
			return nil, &core.StageExecutionError{Stage: name, Err: ctx.Err()}
		}
		m.log.Append(core.ExecutionRecord{Stage: name, StartTime: start, Duration: dur, Status: core.StatusTimeout, Detail: callCtx.Err().Error()})
		m.logger.Warn("handoff.call.timeout", "stage", name, "timeout", timeout)
		return nil, &core.StageTimeoutError{Stage: name, Timeout: timeout}

	case res := <-resultCh:
		dur := time.Since(start)
		if res.err != nil {
			m.log.Append(core.ExecutionRecord{Stage: name, StartTime: start, Duration: dur, Status: core.StatusFailed, Detail: res.err.Error()})
			m.logger.Error("handoff.call.failed", "stage", name, "error", res.err.Error())
			return nil, &core.StageExecutionError{Stage: name, Err: res.err}
		}
		m.log.Append(core.ExecutionRecord{Stage: name, StartTime: start, Duration: dur, Status: core.StatusSuccess})
		m.logger.Info("handoff.call.success", "stage", name, "duration_ms", dur.Milliseconds())
		return res.out, nil
	}
}

// Chain executes the named stages in order, threading the result of stage N
// as the context of stage N+1. The first failure aborts the remaining chain
// and is returned as-is; Chain never recovers failures internally.
func (m *Manager) Chain(ctx context.Context, names []string, initial any) (any, error) {
	current := initial
	for _, name := range names {
		out, err := m.Call(ctx, name, current, 0)
		if err != nil {
			m.logger.Warn("handoff.chain.aborted", "stage", name, "error", err.Error())
			return nil, err
		}
		current = out
	}
	return current, nil
}
