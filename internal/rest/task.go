package rest

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/sanLimbu/todo-web/internal"
)

//go:embed templates
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

//TaskService ...
type TaskService interface {
	List(ctx context.Context) internal.TaskList
	Add(ctx context.Context, title, priority string) (internal.Task, error)
	ToggleComplete(ctx context.Context, id int) error
	Delete(ctx context.Context, id int) error
	ClearCompleted(ctx context.Context) error
}

//TaskHandler ...
type TaskHandler struct {
	svc TaskService
}

//NewTaskHandler ...
func NewTaskHandler(svc TaskService) *TaskHandler {
	return &TaskHandler{
		svc: svc,
	}
}

//Register connects the handlers to the router.
func (t *TaskHandler) Register(r chi.Router) {
	r.Get("/", t.index)
	r.Post("/add", t.add)
	r.Get("/complete/{id:[0-9]+}", t.complete)
	r.Get("/delete/{id:[0-9]+}", t.delete)
	r.Get("/clear-completed", t.clearCompleted)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/tasks", t.tasks)
	})
}

func (t *TaskHandler) index(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer

	if err := indexTemplate.Execute(&buf, t.svc.List(r.Context())); err != nil {
		renderErrorResponse(r.Context(), w, "render failed", internal.WrapErrorf(err, internal.ErrorCodeUnknown, "template.Execute"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (t *TaskHandler) add(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderErrorResponse(r.Context(), w, "invalid request", internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "r.ParseForm"))
		return
	}

	priority := strconv.Itoa(int(internal.DefaultPriority))
	if vals, ok := r.PostForm["priority"]; ok && len(vals) > 0 {
		priority = vals[0]
	}

	if _, err := t.svc.Add(r.Context(), r.PostForm.Get("title"), priority); err != nil {
		renderErrorResponse(r.Context(), w, "add failed", err)
		return
	}

	redirectHome(w, r)
}

func (t *TaskHandler) complete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := t.svc.ToggleComplete(r.Context(), id); err != nil {
		renderErrorResponse(r.Context(), w, "complete failed", err)
		return
	}

	redirectHome(w, r)
}

func (t *TaskHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := t.svc.Delete(r.Context(), id); err != nil {
		renderErrorResponse(r.Context(), w, "delete failed", err)
		return
	}

	redirectHome(w, r)
}

func (t *TaskHandler) clearCompleted(w http.ResponseWriter, r *http.Request) {
	if err := t.svc.ClearCompleted(r.Context()); err != nil {
		renderErrorResponse(r.Context(), w, "clear completed failed", err)
		return
	}

	redirectHome(w, r)
}

func (t *TaskHandler) tasks(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, t.svc.List(r.Context()).Tasks)
}

// taskID reports false after answering 404 when the path id does not fit an int.
func taskID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id")) // NOTE: the route pattern only admits digits.
	if err != nil {
		http.NotFound(w, r)
		return 0, false
	}

	return id, true
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}
