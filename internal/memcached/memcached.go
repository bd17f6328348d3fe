package memcached

import (
	"bytes"
	"context"
	"encoding/gob"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/sanLimbu/todo-web/internal"
)

const otelName = "github.com/sanLimbu/todo-web/internal/memcached"

//Client defines the subset of *memcache.Client used for caching.
type Client interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Delete(key string) error
}

func deleteTasks(ctx context.Context, client Client, key string) {
	defer newOTELSpan(ctx, "deleteTasks").End()

	_ = client.Delete(key)
}

func getTasks(ctx context.Context, client Client, key string, target interface{}) error {
	defer newOTELSpan(ctx, "getTasks").End()

	item, err := client.Get(key)
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Get")
	}

	if err := gob.NewDecoder(bytes.NewReader(item.Value)).Decode(target); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "gob.NewDecoder")
	}

	return nil
}

func setTasks(ctx context.Context, client Client, key string, value interface{}, expiration time.Duration) error {
	defer newOTELSpan(ctx, "setTasks").End()

	var b bytes.Buffer

	if err := gob.NewEncoder(&b).Encode(value); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "gob.NewEncoder")
	}

	if err := client.Set(&memcache.Item{
		Key:        key,
		Value:      b.Bytes(),
		Expiration: int32(expiration.Seconds()),
	}); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Set")
	}

	return nil
}

func newOTELSpan(ctx context.Context, name string) trace.Span {
	_, span := otel.Tracer(otelName).Start(ctx, name)

	span.SetAttributes(semconv.DBSystemMemcached)

	return span
}
