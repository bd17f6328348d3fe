package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanLimbu/todo-web/internal/envvar"
)

func TestNewServer(t *testing.T) {
	t.Setenv("TASKS_FILE", filepath.Join(t.TempDir(), "tasks.json"))
	t.Setenv("MEMCACHED_HOST", "")

	conf := envvar.New(nil)

	store, err := newTaskStore(conf, zap.NewNop())
	require.NoError(t, err)

	srv := newServer(serverConfig{
		Address:   ":0",
		Store:     store,
		Metrics:   http.NotFoundHandler(),
		RateLimit: 100,
		Logger:    zap.NewNop(),
	})

	for _, target := range []string{"/", "/api/tasks", "/openapi3.json"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.RemoteAddr = "127.0.0.1:1234"

		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, target)
	}
}

func TestNewMessageBroker(t *testing.T) {
	conf := envvar.New(nil)

	t.Setenv("EVENTS_BROKER", "")

	msgBroker, closeFn, err := newMessageBroker(conf, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, msgBroker)
	closeFn()

	t.Setenv("EVENTS_BROKER", "carrier-pigeon")

	_, _, err = newMessageBroker(conf, zap.NewNop())
	assert.Error(t, err)
}
