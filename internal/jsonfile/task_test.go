package jsonfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanLimbu/todo-web/internal"
	"github.com/sanLimbu/todo-web/internal/jsonfile"
)

func TestTask_LoadMissingOrMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content *string
	}{
		{"missing", nil},
		{"empty", ptr("")},
		{"garbage", ptr("{not json")},
		{"object", ptr(`{"id": 1}`)},
		{"null", ptr("null")},
		{"wrong field types", ptr(`[{"id": "one"}]`)},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "tasks.json")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o644))
			}

			tasks := jsonfile.NewTask(path, zap.NewNop()).Load(context.Background())
			assert.NotNil(t, tasks)
			assert.Empty(t, tasks)
		})
	}
}

func TestTask_SaveLayout(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tasks.json")
	store := jsonfile.NewTask(path, zap.NewNop())

	err := store.Save(context.Background(), []internal.Task{
		{ID: 1, Title: "Купити молоко & <хліб>", Priority: internal.PriorityMedium, Created: "05.03.2024 09:07"},
		{ID: 2, Title: "Done", Priority: internal.PriorityHigh, Completed: true, Created: "05.03.2024 09:08", CompletedDate: "06.03.2024 10:00"},
	})
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	expected := `[
  {
    "id": 1,
    "title": "Купити молоко & <хліб>",
    "priority": 2,
    "completed": false,
    "created": "05.03.2024 09:07"
  },
  {
    "id": 2,
    "title": "Done",
    "priority": 3,
    "completed": true,
    "created": "05.03.2024 09:08",
    "completed_date": "06.03.2024 10:00"
  }
]`
	assert.Equal(t, expected, string(b))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestTask_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tasks.json")
	content := `[
  {
    "id": 3,
    "title": "Water plants",
    "priority": 1,
    "completed": true,
    "created": "01.01.2024 08:00",
    "completed_date": "02.01.2024 08:00"
  },
  {
    "id": 1,
    "title": "Buy milk",
    "priority": 2,
    "completed": false,
    "created": "01.01.2024 07:00"
  }
]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store := jsonfile.NewTask(path, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, store.Load(ctx)))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(b))
}

func TestTask_SaveEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "tasks.json")
	store := jsonfile.NewTask(path, zap.NewNop())

	require.NoError(t, store.Save(context.Background(), nil))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestTask_SaveError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// A directory occupying the target path makes the final rename fail.
	path := filepath.Join(dir, "tasks.json")
	require.NoError(t, os.Mkdir(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "keep"), nil, 0o644))

	err := jsonfile.NewTask(path, zap.NewNop()).Save(context.Background(), []internal.Task{{ID: 1, Title: "x"}})
	assert.Error(t, err)
}

func ptr(s string) *string {
	return &s
}

func TestTask_SaveLineSeparators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{"line separator", "a\u2028b", "\"title\": \"a\u2028b\""},
		{"paragraph separator", "a\u2029b", "\"title\": \"a\u2029b\""},
		{"escaped backslash kept", `a\u2028b`, `"title": "a\\u2028b"`},
		{"backslash before separator", "a\\\u2028b", "\"title\": \"a\\\\\u2028b\""},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "tasks.json")
			store := jsonfile.NewTask(path, zap.NewNop())

			require.NoError(t, store.Save(context.Background(), []internal.Task{
				{ID: 1, Title: tt.title, Priority: internal.PriorityLow, Created: "05.03.2024 09:07"},
			}))

			b, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Contains(t, string(b), tt.expected)

			tasks := store.Load(context.Background())
			require.Len(t, tasks, 1)
			assert.Equal(t, tt.title, tasks[0].Title)
		})
	}
}
