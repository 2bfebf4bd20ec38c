package handoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/seasonflow/core"
)

func echoStage(name string) Stage {
	return NewStageFunc(name, func(_ context.Context, input any) (any, error) {
		return input, nil
	})
}

func TestCallSuccessAppendsOneRecord(t *testing.T) {
	m := New()
	m.Register(echoStage("demand"))

	out, err := m.Call(context.Background(), "demand", 42, 0)
	require.NoError(t, err)
	assert.Equal(t, 42, out)

	records := m.Log().ByStage("demand")
	require.Len(t, records, 1)
	assert.Equal(t, core.StatusSuccess, records[0].Status)
}

func TestCallTimeout(t *testing.T) {
	m := New()
	m.Register(NewStageFunc("slow", func(ctx context.Context, _ any) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return "done", nil
		}
	}))

	_, err := m.Call(context.Background(), "slow", nil, 20*time.Millisecond)
	var terr *core.StageTimeoutError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "slow", terr.Stage)

	records := m.Log().ByStage("slow")
	require.Len(t, records, 1)
	assert.Equal(t, core.StatusTimeout, records[0].Status)
}

func TestCallHandlerError(t *testing.T) {
	boom := errors.New("boom")
	m := New()
	m.Register(NewStageFunc("fragile", func(context.Context, any) (any, error) {
		return nil, boom
	}))

	_, err := m.Call(context.Background(), "fragile", nil, 0)
	var serr *core.StageExecutionError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, boom)

	records := m.Log().ByStage("fragile")
	require.Len(t, records, 1)
	assert.Equal(t, core.StatusFailed, records[0].Status)
	assert.Equal(t, "boom", records[0].Detail)
}

func TestCallNotRegistered(t *testing.T) {
	m := New()
	_, err := m.Call(context.Background(), "ghost", nil, 0)
	var nerr *core.NotRegisteredError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, 0, m.Log().Len())
}

func TestCallCallerCancellation(t *testing.T) {
	m := New()
	m.Register(NewStageFunc("slow", func(ctx context.Context, _ any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := m.Call(ctx, "slow", nil, time.Minute)
	var serr *core.StageExecutionError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, context.Canceled)

	records := m.Log().ByStage("slow")
	require.Len(t, records, 1)
	assert.Equal(t, core.StatusFailed, records[0].Status)
}

func TestChainThreadsResults(t *testing.T) {
	m := New()
	m.Register(NewStageFunc("double", func(_ context.Context, input any) (any, error) {
		return input.(int) * 2, nil
	}))
	m.Register(NewStageFunc("inc", func(_ context.Context, input any) (any, error) {
		return input.(int) + 1, nil
	}))

	out, err := m.Chain(context.Background(), []string{"double", "inc"}, 10)
	require.NoError(t, err)
	assert.Equal(t, 21, out)
	assert.Equal(t, 2, m.Log().Len())
}

func TestChainAbortsOnFirstFailure(t *testing.T) {
	m := New()
	m.Register(echoStage("first"))
	m.Register(NewStageFunc("failing", func(context.Context, any) (any, error) {
		return nil, errors.New("nope")
	}))
	called := false
	m.Register(NewStageFunc("third", func(_ context.Context, input any) (any, error) {
		called = true
		return input, nil
	}))

	_, err := m.Chain(context.Background(), []string{"first", "failing", "third"}, nil)
	var serr *core.StageExecutionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "failing", serr.Stage)
	assert.False(t, called)
	assert.Empty(t, m.Log().ByStage("third"))
}
