package internal

import (
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

//TimestampLayout is the human readable format used for the created and completed_date fields.
const TimestampLayout = "02.01.2006 15:04"

//Priority indicates how important a Task is.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

//DefaultPriority is used when a new Task is submitted without one.
const DefaultPriority = PriorityMedium

//ParsePriority converts the raw submitted value into a Priority.
func ParsePriority(v string) (Priority, error) {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, WrapErrorf(err, ErrorCodeInvalidArgument, "strconv.Atoi")
	}

	return Priority(i), nil
}

//Validate ...
func (p Priority) Validate() error {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return nil
	}

	return NewErrorf(ErrorCodeInvalidArgument, "unknown priority: %d", p)
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	}

	return strconv.Itoa(int(p))
}

//Task is a single to-do item.
type Task struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Priority      Priority `json:"priority"`
	Completed     bool     `json:"completed"`
	Created       string   `json:"created"`
	CompletedDate string   `json:"completed_date,omitempty"`
}

//Toggle flips the completed flag, stamping or clearing the completion date.
func (t *Task) Toggle(now time.Time) {
	t.Completed = !t.Completed
	if t.Completed {
		t.CompletedDate = now.Format(TimestampLayout)
		return
	}

	t.CompletedDate = ""
}

//AddParams defines the arguments used for creating Task records.
type AddParams struct {
	Title    string
	Priority Priority
}

//Validate indicates whether the fields are valid or not.
func (a AddParams) Validate() error {
	if err := validation.ValidateStruct(&a,
		validation.Field(&a.Title, validation.Required),
		validation.Field(&a.Priority, validation.Required),
	); err != nil {
		return WrapErrorf(err, ErrorCodeInvalidArgument, "validation.Validate")
	}

	return nil
}

//TaskList is the full collection together with its summary counts.
type TaskList struct {
	Tasks     []Task
	Total     int
	Completed int
	Pending   int
}

//NewTaskList computes the summary counts for tasks.
func NewTaskList(tasks []Task) TaskList {
	if tasks == nil {
		tasks = []Task{}
	}

	res := TaskList{
		Tasks: tasks,
		Total: len(tasks),
	}

	for _, t := range tasks {
		if t.Completed {
			res.Completed++
		}
	}

	res.Pending = res.Total - res.Completed

	return res
}
