// Mafia Agent Router
//
// Standalone demo process that wires the full routing engine: service
// container, rule engine, agent registry, and the middleware pipeline, with
// Prometheus metrics exposed over HTTP and optional OTLP trace export.
//
// Usage:
//
//	go run ./cmd/mafiarouter                       # metrics on :9090
//	go run ./cmd/mafiarouter -metrics-addr :8080   # custom metrics port
//	go run ./cmd/mafiarouter -otlp localhost:4317  # export traces
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/agents"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/container"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/logging"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/observability"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/pipeline"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/router"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/routing"
)

// echoAgent is a demo agent that answers every message with its own id.
type echoAgent struct {
	id     string
	skills []string
}

func (a *echoAgent) ID() string            { return a.id }
func (a *echoAgent) Name() string          { return a.id }
func (a *echoAgent) Status() agents.Status { return agents.StatusAvailable }
func (a *echoAgent) Capabilities() agents.Capabilities {
	return agents.Capabilities{Skills: a.skills}
}
func (a *echoAgent) CanHandle(*message.Message) bool { return true }
func (a *echoAgent) Handle(ctx context.Context, msg *message.Message) (*message.Result, error) {
	return message.Ok(fmt.Sprintf("%s handled %q", a.id, msg.Subject)), nil
}

func main() {
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics address")
	otlpEndpoint := flag.String("otlp", "", "OTLP gRPC endpoint for trace export (empty disables)")
	flag.Parse()

	logger := logging.NewDefault()
	logger.Info("router_starting", "metrics_addr", *metricsAddr)

	if *otlpEndpoint != "" {
		shutdown, err := observability.InitTracer("mafia-agent-router", *otlpEndpoint)
		if err != nil {
			logger.Error("tracer_init_failed", "error", err.Error())
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
		logger.Info("tracer_initialized", "endpoint", *otlpEndpoint)
	}

	c := container.New()
	container.RegisterSingleton(c, "logger", func(*container.Container) (logging.Logger, error) {
		return logger, nil
	})
	container.RegisterSingleton(c, "analytics", func(*container.Container) (*pipeline.AnalyticsMiddleware, error) {
		return pipeline.NewAnalyticsMiddleware(), nil
	})
	container.RegisterSingleton(c, "queue", func(c *container.Container) (*pipeline.MessageQueueMiddleware, error) {
		log := container.MustResolve[logging.Logger](c, "logger")
		return pipeline.NewMessageQueueMiddleware(10, 50*time.Millisecond, log), nil
	})
	container.RegisterSingleton(c, "router", func(c *container.Container) (*router.Router, error) {
		log := container.MustResolve[logging.Logger](c, "logger")
		analytics := container.MustResolve[*pipeline.AnalyticsMiddleware](c, "analytics")
		queue := container.MustResolve[*pipeline.MessageQueueMiddleware](c, "queue")

		return router.NewBuilder().
			WithLogger(log).
			Use(pipeline.NewValidationMiddleware()).
			Use(pipeline.NewTracingMiddleware("mafia-agent-router", nil)).
			Use(pipeline.NewLoggingMiddleware(log)).
			Use(pipeline.NewEnrichmentMiddleware(nil)).
			Use(pipeline.NewPriorityBoostMiddleware([]string{"boss"})).
			Use(analytics).
			Use(pipeline.NewTransformationMiddleware(nil)).
			Use(pipeline.NewSemanticRoutingMiddleware()).
			Use(pipeline.NewTimingMiddleware()).
			Use(queue).
			RegisterAgent(&echoAgent{id: "support", skills: []string{"support"}}).
			RegisterAgent(&echoAgent{id: "billing", skills: []string{"billing"}}).
			AddRule("support", "support traffic",
				func(ctx *routing.Context) bool { return ctx.CategoryIs("support") },
				"support", 10).
			AddRule("billing", "billing traffic",
				func(ctx *routing.Context) bool { return ctx.CategoryIs("billing") },
				"billing", 10).
			AddRule("fallback", "everything else",
				func(*routing.Context) bool { return true },
				"support", -1).
			Build(), nil
	})
	defer func() {
		if err := c.Dispose(); err != nil {
			logger.Error("container_dispose_failed", "error", err.Error())
		}
	}()

	r := container.MustResolve[*router.Router](c, "router")
	logger.Info("router_configured", "agents", len(r.GetAllAgents()))

	// Metrics endpoint.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: *metricsAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics_server_failed", "error", err.Error())
		}
	}()

	// Demo traffic.
	for _, m := range []*message.Message{
		message.New("alice", "printer down", "the office printer shows an error", message.WithCategory("support")),
		message.New("bob", "invoice question", "I was charged twice, I want a refund", message.WithCategory("billing")),
		message.New("boss", "status report", "need the numbers asap", message.WithPriority(message.PriorityLow)),
	} {
		result, err := r.Route(context.Background(), m)
		if err != nil {
			logger.Error("route_failed", "message_id", m.ID, "error", err.Error())
			continue
		}
		logger.Info("route_done", "message_id", m.ID, "success", result.Success, "response", result.Response)
	}

	analytics := container.MustResolve[*pipeline.AnalyticsMiddleware](c, "analytics")
	fmt.Println()
	fmt.Print(analytics.GenerateReport())
	fmt.Println("\nMetrics on", *metricsAddr, "- press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown_signal_received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
	logger.Info("router_stopped")
}
