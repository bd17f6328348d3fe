package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sanLimbu/todo-web/internal"
)

const otelName = "github.com/sanLimbu/todo-web/internal/jsonfile"

//Task represents the repository used for persisting the Task collection as a JSON document.
type Task struct {
	path   string
	logger *zap.Logger
}

//NewTask instantiates the Task repository stored at path.
func NewTask(path string, logger *zap.Logger) *Task {
	return &Task{
		path:   path,
		logger: logger,
	}
}

//Load reads the whole collection. A missing, unreadable or malformed file yields an empty collection.
func (t *Task) Load(ctx context.Context) []internal.Task {
	defer t.newOTELSpan(ctx, "Task.Load").End()

	b, err := os.ReadFile(t.path)
	if err != nil {
		if !os.IsNotExist(err) {
			t.logger.Warn("Load: unreadable file, using empty collection", zap.String("path", t.path), zap.Error(err))
		}

		return []internal.Task{}
	}

	var res []internal.Task
	if err := json.Unmarshal(b, &res); err != nil {
		t.logger.Warn("Load: malformed file, using empty collection", zap.String("path", t.path), zap.Error(err))
		return []internal.Task{}
	}

	if res == nil {
		return []internal.Task{}
	}

	return res
}

//Save replaces the stored collection with tasks.
func (t *Task) Save(ctx context.Context, tasks []internal.Task) error {
	defer t.newOTELSpan(ctx, "Task.Save").End()

	if tasks == nil {
		tasks = []internal.Task{}
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(tasks); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "json.Encode")
	}

	content := unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))

	dir := filepath.Dir(t.path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "os.MkdirAll")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(t.path)+".*.tmp")
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "os.CreateTemp")
	}

	defer os.Remove(tmp.Name()) // no-op once renamed

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "tmp.Write")
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "tmp.Sync")
	}

	if err := tmp.Close(); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "tmp.Close")
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "os.Chmod")
	}

	if err := os.Rename(tmp.Name(), t.path); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "os.Rename")
	}

	return nil
}

// unescapeLineSeparators writes U+2028 and U+2029 literally, json.Encoder escapes them even with
// SetEscapeHTML(false). Escaped backslashes are copied as pairs so `\\u2028` is left alone.
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}

	res := make([]byte, 0, len(b))

	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			res = append(res, b[i])
			continue
		}

		if rest := b[i:]; bytes.HasPrefix(rest, []byte(`\u2028`)) || bytes.HasPrefix(rest, []byte(`\u2029`)) {
			if rest[5] == '8' {
				res = append(res, "\u2028"...)
			} else {
				res = append(res, "\u2029"...)
			}

			i += 5

			continue
		}

		res = append(res, b[i], b[i+1])
		i++
	}

	return res
}

func (t *Task) newOTELSpan(ctx context.Context, name string) trace.Span {
	_, span := otel.Tracer(otelName).Start(ctx, name)

	span.SetAttributes(attribute.String("file.path", t.path))

	return span
}
