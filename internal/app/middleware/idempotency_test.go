package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/commands"
	"staybook/internal/app/middleware"
)

type mapStore struct {
	items map[string]middleware.IdempotencyRecord
}

func newMapStore() *mapStore {
	return &mapStore{items: make(map[string]middleware.IdempotencyRecord)}
}

func (s *mapStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *mapStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.items[rec.Key] = rec
	return nil
}

type createThing struct {
	Name string
	Key_ string
}

func (c createThing) Key() string            { return "thing.create" }
func (c createThing) IdempotencyKey() string { return c.Key_ }
func (c createThing) ResultPrototype() any   { return &thingResult{} }

type thingResult struct {
	ID string `json:"id"`
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	base := commands.NewInMemoryBus()
	calls := 0
	commands.RegisterHandler(base, "thing.create",
		commands.HandlerFunc[createThing, *thingResult](func(ctx context.Context, cmd createThing) (*thingResult, error) {
			calls++
			return &thingResult{ID: "thing-1"}, nil
		}))

	bus := middleware.ChainCommands(base, middleware.Idempotency(newMapStore(), nil))

	first, err := commands.Dispatch[createThing, *thingResult](context.Background(), bus, createThing{Name: "a", Key_: "k1"})
	require.NoError(t, err)

	second, err := commands.Dispatch[createThing, *thingResult](context.Background(), bus, createThing{Name: "a", Key_: "k1"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.ID, second.ID)
}

func TestIdempotencyDistinctKeysExecuteSeparately(t *testing.T) {
	base := commands.NewInMemoryBus()
	calls := 0
	commands.RegisterHandler(base, "thing.create",
		commands.HandlerFunc[createThing, *thingResult](func(ctx context.Context, cmd createThing) (*thingResult, error) {
			calls++
			return &thingResult{ID: cmd.Name}, nil
		}))

	bus := middleware.ChainCommands(base, middleware.Idempotency(newMapStore(), nil))

	_, err := commands.Dispatch[createThing, *thingResult](context.Background(), bus, createThing{Name: "a", Key_: "k1"})
	require.NoError(t, err)
	_, err = commands.Dispatch[createThing, *thingResult](context.Background(), bus, createThing{Name: "b", Key_: "k2"})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestIdempotencyEmptyKeyBypassesStore(t *testing.T) {
	base := commands.NewInMemoryBus()
	calls := 0
	commands.RegisterHandler(base, "thing.create",
		commands.HandlerFunc[createThing, *thingResult](func(ctx context.Context, cmd createThing) (*thingResult, error) {
			calls++
			return &thingResult{ID: "thing-1"}, nil
		}))

	bus := middleware.ChainCommands(base, middleware.Idempotency(newMapStore(), nil))

	for i := 0; i < 3; i++ {
		_, err := commands.Dispatch[createThing, *thingResult](context.Background(), bus, createThing{Name: "a"})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
}

func TestIdempotencyReplaysFailures(t *testing.T) {
	base := commands.NewInMemoryBus()
	calls := 0
	commands.RegisterHandler(base, "thing.create",
		commands.HandlerFunc[createThing, *thingResult](func(ctx context.Context, cmd createThing) (*thingResult, error) {
			calls++
			return nil, errors.New("window is no longer available")
		}))

	bus := middleware.ChainCommands(base, middleware.Idempotency(newMapStore(), nil))

	_, err := commands.Dispatch[createThing, *thingResult](context.Background(), bus, createThing{Key_: "k1"})
	require.EqualError(t, err, "window is no longer available")

	_, err = commands.Dispatch[createThing, *thingResult](context.Background(), bus, createThing{Key_: "k1"})
	require.EqualError(t, err, "window is no longer available")
	assert.Equal(t, 1, calls)
}
