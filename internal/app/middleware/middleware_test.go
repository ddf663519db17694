package middleware

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spacio/internal/app/commands"
)

type echoCommand struct {
	Value string
	Idem  string
}

func (echoCommand) Key() string              { return "test.echo" }
func (c echoCommand) IdempotencyKey() string { return c.Idem }
func (echoCommand) ResultPrototype() any     { return &echoResult{} }

type echoResult struct {
	Value string `json:"value"`
	Call  int64  `json:"call"`
}

type memStore struct {
	mu    sync.Mutex
	items map[string]IdempotencyRecord
}

func (s *memStore) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *memStore) Save(_ context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		s.items = map[string]IdempotencyRecord{}
	}
	s.items[rec.Key] = rec
	return nil
}

func newEchoBus(calls *int64, fail func(call int64) error) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, commands.HandlerFunc[echoCommand, *echoResult](func(ctx context.Context, cmd echoCommand) (*echoResult, error) {
		n := atomic.AddInt64(calls, 1)
		if fail != nil {
			if err := fail(n); err != nil {
				return nil, err
			}
		}
		return &echoResult{Value: cmd.Value, Call: n}, nil
	}))
	return bus
}

func TestIdempotency_ReplaysSuccessfulResult(t *testing.T) {
	var calls int64
	store := &memStore{}
	bus := ChainCommands(newEchoBus(&calls, nil), Idempotency(store, nil))
	ctx := context.Background()

	first, err := commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Value: "a", Idem: "k1"})
	require.NoError(t, err)
	second, err := commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Value: "a", Idem: "k1"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))

	_, err = commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Value: "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
	assert.Contains(t, store.items, "test.echo:k1")
}

func TestIdempotency_DoesNotCacheFailures(t *testing.T) {
	var calls int64
	boom := errors.New("boom")
	bus := ChainCommands(newEchoBus(&calls, func(n int64) error {
		if n == 1 {
			return boom
		}
		return nil
	}), Idempotency(&memStore{}, nil))

	_, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Idem: "k"})
	assert.ErrorIs(t, err, boom)

	res, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Idem: "k"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Call)
}

func TestIdempotency_SerializesSameKey(t *testing.T) {
	var calls int64
	bus := ChainCommands(newEchoBus(&calls, nil), Idempotency(&memStore{}, nil))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Idem: "same"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

var errConflict = errors.New("conflict")

func TestRetryOnConflict(t *testing.T) {
	var calls int64
	var attempts []int
	var mu sync.Mutex
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, commands.HandlerFunc[echoCommand, *echoResult](func(ctx context.Context, cmd echoCommand) (*echoResult, error) {
		mu.Lock()
		attempts = append(attempts, Attempt(ctx))
		mu.Unlock()
		if atomic.AddInt64(&calls, 1) < 3 {
			return nil, errConflict
		}
		return &echoResult{Value: "ok"}, nil
	}))
	wrapped := ChainCommands(bus, RetryOnConflict(3, func(err error) bool { return errors.Is(err, errConflict) }, 0))

	res, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), wrapped, echoCommand{})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Value)
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestRetryOnConflict_GivesUp(t *testing.T) {
	var calls int64
	wrapped := ChainCommands(
		newEchoBus(&calls, func(int64) error { return errConflict }),
		RetryOnConflict(2, func(err error) bool { return errors.Is(err, errConflict) }, 0),
	)
	_, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), wrapped, echoCommand{})
	assert.ErrorIs(t, err, errConflict)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
	assert.Equal(t, 1, Attempt(context.Background()))
}
