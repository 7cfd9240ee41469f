// assortctl is the operator-facing CLI for the retail assortment
// optimizer pipeline: it inspects the effective configuration, a
// schedule's run history, and the scheduler's circuit breaker state.
// It does not load store/sales/weather data or trigger a pipeline
// run itself — callers embed pkg/pipeline directly for that — so its
// flag surface stays limited to locating a config file and a history
// file, the same "wiring, not parsing" boundary the teacher's optctl
// keeps around kubeconfig/container/pricing flags.
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/scheduler"
	"retail-assortment-optimizer/pkg/storage"

	"gopkg.in/yaml.v2"
)

const defaultHistoryFile = "/var/lib/assortctl/run-history.json"

var (
	configPath  string
	historyFile string
	scheduleArg string
	recentN     int
)

func main() {
	flag.StringVar(&configPath, "config", "", "Path to pipeline config YAML (default: built-in defaults)")
	flag.StringVar(&historyFile, "history-file", defaultHistoryFile, "Path to the run history file")
	flag.StringVar(&scheduleArg, "schedule", "default", "Schedule name to inspect (for the history command)")
	flag.IntVar(&recentN, "n", 10, "Number of recent runs to show (for the history command)")
	flag.Parse()

	if len(flag.Args()) < 1 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch flag.Args()[0] {
	case "config":
		err = handleConfig()
	case "history":
		err = handleHistory()
	case "status":
		err = handleStatus()
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "assortctl: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: assortctl <command> [options]\n")
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  config                        Print the effective pipeline configuration\n")
	fmt.Fprintf(os.Stderr, "  history                       Show recent runs for a schedule\n")
	fmt.Fprintf(os.Stderr, "  status                        Show the run-health circuit breaker's default state\n")
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	fmt.Fprintf(os.Stderr, "  --config         Path to pipeline config YAML\n")
	fmt.Fprintf(os.Stderr, "  --history-file   Path to the run history file (default: %s)\n", defaultHistoryFile)
	fmt.Fprintf(os.Stderr, "  --schedule       Schedule name to inspect (default: \"default\")\n")
	fmt.Fprintf(os.Stderr, "  --n              Number of recent runs to show (default: 10)\n")
}

func loadConfig() (*config.Pipeline, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func handleConfig() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func handleHistory() error {
	history := storage.NewRunHistory()
	if err := history.LoadFromFile(historyFile); err != nil {
		return fmt.Errorf("load history from %s: %w", historyFile, err)
	}

	records := history.Recent(scheduleArg, recentN)
	if len(records) == 0 {
		fmt.Printf("no runs recorded for schedule %q\n", scheduleArg)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tDURATION\tSUCCEEDED\tCLUSTERS\tRECS\tUNALLOCATABLE\tERROR")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%d\t%d\t%s\n",
			r.StartedAt.Format("2006-01-02T15:04:05"),
			r.FinishedAt.Sub(r.StartedAt),
			r.Succeeded,
			r.ClustersFormed,
			r.RecommendationsEmitted,
			r.UnallocatableUnits,
			r.Error,
		)
	}
	return w.Flush()
}

func handleStatus() error {
	// A freshly constructed breaker always reports Closed; this command
	// demonstrates the same state surface the scheduler.Runner consults
	// before each invocation rather than attaching to a live process's
	// breaker, since that state isn't persisted between assortctl
	// invocations.
	breaker := scheduler.NewCircuitBreaker()
	fmt.Printf("circuit breaker state: %s\n", stateLabel(breaker.State()))
	return nil
}

func stateLabel(s scheduler.CircuitState) string {
	labels := map[scheduler.CircuitState]string{
		scheduler.CircuitClosed:   "Closed (runs allowed)",
		scheduler.CircuitOpen:     "Open (runs blocked)",
		scheduler.CircuitHalfOpen: "HalfOpen (probing)",
	}
	if label, ok := labels[s]; ok {
		return label
	}
	return string(s)
}
