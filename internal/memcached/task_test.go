package memcached_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanLimbu/todo-web/internal"
	"github.com/sanLimbu/todo-web/internal/memcached"
)

const tasksKey = "todo-web:tasks"

type fakeClient struct {
	items map[string][]byte
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: map[string][]byte{}}
}

func (f *fakeClient) Get(key string) (*memcache.Item, error) {
	v, ok := f.items[key]
	if !ok {
		return nil, memcache.ErrCacheMiss
	}

	return &memcache.Item{Key: key, Value: v}, nil
}

func (f *fakeClient) Set(item *memcache.Item) error {
	f.items[item.Key] = item.Value
	return nil
}

func (f *fakeClient) Delete(key string) error {
	if _, ok := f.items[key]; !ok {
		return memcache.ErrCacheMiss
	}

	delete(f.items, key)

	return nil
}

type fakeStore struct {
	tasks   []internal.Task
	loads   int
	saveErr error
}

func (f *fakeStore) Load(_ context.Context) []internal.Task {
	f.loads++
	return append([]internal.Task{}, f.tasks...)
}

func (f *fakeStore) Save(_ context.Context, tasks []internal.Task) error {
	if f.saveErr != nil {
		return f.saveErr
	}

	f.tasks = tasks

	return nil
}

func TestTask_LoadFillsCacheOnMiss(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	orig := &fakeStore{tasks: []internal.Task{{ID: 1, Title: "Buy milk", Priority: internal.PriorityMedium}}}
	store := memcached.NewTask(client, orig, zap.NewNop())

	assert.Equal(t, orig.tasks, store.Load(context.Background()))
	assert.Equal(t, 1, orig.loads)
	assert.Contains(t, client.items, tasksKey)

	assert.Equal(t, orig.tasks, store.Load(context.Background()))
	assert.Equal(t, 1, orig.loads, "second load must be served from the cache")
}

func TestTask_LoadEmptyCollection(t *testing.T) {
	t.Parallel()

	store := memcached.NewTask(newFakeClient(), &fakeStore{tasks: []internal.Task{}}, zap.NewNop())

	assert.NotNil(t, store.Load(context.Background()))
	assert.NotNil(t, store.Load(context.Background()))
}

func TestTask_Save(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	orig := &fakeStore{}
	store := memcached.NewTask(client, orig, zap.NewNop())

	tasks := []internal.Task{{ID: 2, Title: "Call mom", Priority: internal.PriorityHigh}}

	require.NoError(t, store.Save(context.Background(), tasks))
	assert.Equal(t, tasks, orig.tasks)

	assert.Equal(t, tasks, store.Load(context.Background()))
	assert.Zero(t, orig.loads)
}

func TestTask_SaveErrorEvictsCache(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	orig := &fakeStore{tasks: []internal.Task{{ID: 1, Title: "Buy milk", Priority: internal.PriorityMedium}}}
	store := memcached.NewTask(client, orig, zap.NewNop())

	_ = store.Load(context.Background())
	require.Contains(t, client.items, tasksKey)

	orig.saveErr = errors.New("disk full")

	err := store.Save(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, orig.saveErr)
	assert.NotContains(t, client.items, tasksKey)

	assert.Equal(t, orig.tasks, store.Load(context.Background()))
	assert.Equal(t, 2, orig.loads)
}
