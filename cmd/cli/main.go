package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/sanLimbu/todo-web/internal"
)

func main() {
	var address string
	var trace bool

	flag.StringVar(&address, "address", "http://localhost:5000", "Tasks server address")
	flag.BoolVar(&trace, "trace", false, "Print spans to stderr")
	flag.Parse()

	tp, err := initTracer(trace)
	if err != nil {
		log.Fatalf("Couldn't initialize tracer: %s", err)
	}

	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	client := http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   5 * time.Second,
	}

	list, err := fetchTasks(context.Background(), &client, address)
	if err != nil {
		log.Fatalf("Couldn't list tasks: %s", err)
	}

	for _, task := range list.Tasks {
		mark := " "
		if task.Completed {
			mark = "x"
		}

		fmt.Printf("[%s] %3d  %-6s  %s  (%s)\n", mark, task.ID, task.Priority, task.Title, task.Created)
	}

	fmt.Printf("\nTotal: %d\tCompleted: %d\tPending: %d\n", list.Total, list.Completed, list.Pending)
}

func fetchTasks(ctx context.Context, client *http.Client, address string) (internal.TaskList, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(address, "/")+"/api/tasks", nil)
	if err != nil {
		return internal.TaskList{}, fmt.Errorf("http.NewRequest %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return internal.TaskList{}, fmt.Errorf("client.Do %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return internal.TaskList{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var tasks []internal.Task
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return internal.TaskList{}, fmt.Errorf("json.Decode %w", err)
	}

	return internal.NewTaskList(tasks), nil
}

//initTracer initializes OpenTelemetry tracing, spans are printed to stderr when enabled.
func initTracer(enabled bool) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{sdktrace.WithSampler(sdktrace.AlwaysSample())}

	if enabled {
		stdoutExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(os.Stderr))
		if err != nil {
			return nil, fmt.Errorf("stdouttrace.New %w", err)
		}

		opts = append(opts, sdktrace.WithBatcher(stdoutExporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}
