// Command scene-inspector connects to a running simulator as a supervisor
// controller, walks the scene graph from the root node, and prints one
// line per node. It doubles as a smoke test for a deployed simulator:
// every line below the start node comes from a read of a children field
// that went over the wire.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/signalsfoundry/scene-supervisor/config"
	"github.com/signalsfoundry/scene-supervisor/internal/logging"
	"github.com/signalsfoundry/scene-supervisor/internal/observability"
	"github.com/signalsfoundry/scene-supervisor/scene"
	"github.com/signalsfoundry/scene-supervisor/supervisor"
	"github.com/signalsfoundry/scene-supervisor/timectrl"
	"github.com/signalsfoundry/scene-supervisor/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scene-inspector: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		address    string
		defName    string
		maxDepth   int
	)
	pflag.StringVar(&configPath, "config", "", "path to a YAML configuration file")
	pflag.StringVar(&address, "address", "", "simulator address (overrides the config file)")
	pflag.StringVar(&defName, "def", "", "start the walk at this DEF name instead of the root")
	pflag.IntVar(&maxDepth, "max-depth", 8, "maximum scene-tree depth to descend")
	pflag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if address != "" {
		cfg.Simulator.Address = address
	}

	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	ctx := context.Background()

	tracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "scene-inspector",
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, log)
	if err != nil {
		return err
	}
	defer tracing.Shutdown(ctx)

	var metrics *observability.SupervisorCollector
	if cfg.Metrics.Enabled {
		metrics, err = observability.NewSupervisorCollector(nil)
		if err != nil {
			return err
		}
		go func() {
			log.Info(ctx, "serving metrics", logging.String("listen", cfg.Metrics.ListenAddress))
			if err := http.ListenAndServe(cfg.Metrics.ListenAddress, metrics.Handler()); err != nil {
				log.Error(ctx, "metrics listener failed", logging.String("error", err.Error()))
			}
		}()
	}

	conn, err := transport.Dial(cfg.Simulator.Address)
	if err != nil {
		return err
	}
	driver := transport.NewDriver(conn,
		transport.WithClock(timectrl.NewStepClock(cfg.Simulator.BasicTimeStep.Std())),
		transport.WithLogger(log),
	)
	defer driver.Shutdown()

	sup := supervisor.New(driver,
		supervisor.WithLogger(log),
		supervisor.WithMetrics(metrics),
		supervisor.WithSupervisorRole(cfg.Simulator.Supervisor == nil || *cfg.Simulator.Supervisor),
	)
	defer sup.Close()

	start := sup.Root()
	if defName != "" {
		if start = sup.NodeFromDEF(defName); start == nil {
			return fmt.Errorf("no node with DEF name %q", defName)
		}
	}

	printTree(sup, start, 0, maxDepth)
	return nil
}

// printTree walks the children fields depth-first, one line per node.
func printTree(sup *supervisor.Supervisor, node *scene.Node, depth, maxDepth int) {
	name := sup.NodeTypeName(node)
	if def := sup.NodeDEF(node); def != "" {
		name = fmt.Sprintf("DEF %s %s", def, name)
	}
	fmt.Printf("%s%s\n", strings.Repeat("  ", depth), name)

	if depth >= maxDepth {
		return
	}
	children := sup.NodeField(node, "children")
	if children == nil {
		return
	}
	count := sup.FieldCount(children)
	for i := 0; i < count; i++ {
		if child := sup.FieldMFNode(children, i); child != nil {
			printTree(sup, child, depth+1, maxDepth)
		}
	}
}
