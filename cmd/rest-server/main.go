package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/go-chi/chi/v5"
	"github.com/riandyrn/otelchi"
	"go.uber.org/zap"

	"github.com/sanLimbu/todo-web/cmd/internal"
	internaldomain "github.com/sanLimbu/todo-web/internal"
	"github.com/sanLimbu/todo-web/internal/broker"
	"github.com/sanLimbu/todo-web/internal/envvar"
	"github.com/sanLimbu/todo-web/internal/jsonfile"
	"github.com/sanLimbu/todo-web/internal/kafka"
	"github.com/sanLimbu/todo-web/internal/memcached"
	"github.com/sanLimbu/todo-web/internal/rabbitmq"
	"github.com/sanLimbu/todo-web/internal/redis"
	"github.com/sanLimbu/todo-web/internal/rest"
	"github.com/sanLimbu/todo-web/internal/service"
)

const serviceName = "todo-web"

func main() {
	var env, address string

	flag.StringVar(&env, "env", "", "Environment Variables filename")
	flag.StringVar(&address, "address", "0.0.0.0:5000", "HTTP Server Address")
	flag.Parse()

	errC, err := run(env, address)
	if err != nil {
		log.Fatalf("Couldn't run: %s", err)
	}

	if err := <-errC; err != nil {
		log.Fatalf("Error while running: %s", err)
	}
}

func run(env, address string) (<-chan error, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "zap.NewProduction")
	}

	if err := envvar.Load(env); err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "envvar.Load")
	}

	vault, err := internal.NewVaultProvider()
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewVaultProvider")
	}

	var provider envvar.Provider
	if vault != nil {
		provider = vault
	}

	conf := envvar.New(provider)

	metrics, err := internal.NewOTExporter(conf, serviceName)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewOTExporter")
	}

	store, err := newTaskStore(conf, logger)
	if err != nil {
		return nil, fmt.Errorf("newTaskStore %w", err)
	}

	msgBroker, closeBroker, err := newMessageBroker(conf, logger)
	if err != nil {
		return nil, fmt.Errorf("newMessageBroker %w", err)
	}

	rateLimit, err := conf.GetInt("RATE_LIMIT", 10)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "conf.Get RATE_LIMIT")
	}

	logging := func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Info(r.Method,
				zap.Time("time", time.Now()),
				zap.String("url", r.URL.String()),
			)
			h.ServeHTTP(w, r)
		})
	}

	srv := newServer(serverConfig{
		Address:     address,
		Store:       store,
		MsgBroker:   msgBroker,
		Metrics:     metrics,
		RateLimit:   float64(rateLimit),
		Middlewares: []func(next http.Handler) http.Handler{otelchi.Middleware(serviceName), logging},
		Logger:      logger,
	})

	errC := make(chan error, 1)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	go func() {
		<-ctx.Done()

		logger.Info("Shutdown signal received")

		ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		defer func() {
			_ = logger.Sync()
			closeBroker()
			stop()
			cancel()
			close(errC)
		}()

		srv.SetKeepAlivesEnabled(false)

		if err := srv.Shutdown(ctxTimeout); err != nil {
			errC <- err
		}

		logger.Info("Shutdown completed")
	}()

	go func() {
		logger.Info("Listening and serving", zap.String("address", address))

		// "ListenAndServe always returns a non-nil error. After Shutdown or Close, the returned error is
		// ErrServerClosed."
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	return errC, nil
}

func newTaskStore(conf *envvar.Configuration, logger *zap.Logger) (service.TaskStore, error) {
	path, err := conf.GetDefault("TASKS_FILE", "tasks.json")
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "conf.Get TASKS_FILE")
	}

	var store service.TaskStore = jsonfile.NewTask(path, logger)

	client, err := internal.NewMemcached(conf)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewMemcached")
	}

	if client != nil {
		store = memcached.NewTask(client, store, logger)
	}

	return store, nil
}

// newMessageBroker returns a nil repository when EVENTS_BROKER is empty.
func newMessageBroker(conf *envvar.Configuration, logger *zap.Logger) (service.TaskMessageBrokerRepository, func(), error) {
	kind, err := conf.Get("EVENTS_BROKER")
	if err != nil {
		return nil, nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "conf.Get EVENTS_BROKER")
	}

	var (
		orig    broker.TaskPublisher
		closeFn func()
	)

	switch kind {
	case "":
		return nil, func() {}, nil
	case "kafka":
		producer, err := internal.NewKafkaProducer(conf, logger)
		if err != nil {
			return nil, nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewKafkaProducer")
		}

		orig, closeFn = kafka.NewTask(producer.Producer, producer.Topic), producer.Close
	case "rabbitmq":
		rmq, err := internal.NewRabbitMQ(conf)
		if err != nil {
			return nil, nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewRabbitMQ")
		}

		orig, closeFn = rabbitmq.NewTask(rmq.Channel), rmq.Close
	case "redis":
		rdb, err := internal.NewRedis(conf)
		if err != nil {
			return nil, nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewRedis")
		}

		channel, err := conf.GetDefault("REDIS_CHANNEL", "tasks")
		if err != nil {
			return nil, nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "conf.Get REDIS_CHANNEL")
		}

		orig, closeFn = redis.NewTask(rdb, channel), func() { _ = rdb.Close() }
	default:
		return nil, nil, internaldomain.NewErrorf(internaldomain.ErrorCodeInvalidArgument, "unknown EVENTS_BROKER %q", kind)
	}

	logger.Info("Publishing task events", zap.String("broker", kind))

	return broker.NewTask(orig, 3, 30*time.Second, logger), closeFn, nil
}

type serverConfig struct {
	Address     string
	Store       service.TaskStore
	MsgBroker   service.TaskMessageBrokerRepository
	Metrics     http.Handler
	RateLimit   float64
	Middlewares []func(next http.Handler) http.Handler
	Logger      *zap.Logger
}

func newServer(conf serverConfig) *http.Server {
	router := chi.NewRouter()

	for _, mw := range conf.Middlewares {
		router.Use(mw)
	}

	svc := service.NewTask(conf.Logger, conf.Store, conf.MsgBroker)

	rest.RegisterOpenAPI(router)
	rest.NewTaskHandler(svc).Register(router)

	router.Handle("/metrics", conf.Metrics)

	lmt := tollbooth.NewLimiter(conf.RateLimit, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Second})
	lmtmw := tollbooth.LimitHandler(lmt, router)

	return &http.Server{
		Handler:           lmtmw,
		Addr:              conf.Address,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 1 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}
