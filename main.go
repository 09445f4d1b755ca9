package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aunum/log"
	"github.com/google/uuid"

	"github.com/samuelfneumann/minidqn/agent"
	"github.com/samuelfneumann/minidqn/experiment"
	"github.com/samuelfneumann/minidqn/experiment/checkpointer"
	"github.com/samuelfneumann/minidqn/experiment/tracker"
	"github.com/samuelfneumann/minidqn/telemetry"
	"github.com/samuelfneumann/minidqn/utils/progressbar"
)

var (
	version = "dev"
	commit  = ""
)

// options holds the command line options
type options struct {
	configFile      string
	episodes        int
	batchSize       int
	seed            uint64
	checkpointDir   string
	checkpointEvery int
	plotFile        string
	traceFile       string
	progress        bool
}

func main() {
	var showVersion bool
	var seed string
	var opts options

	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.StringVar(&opts.configFile, "config", getEnv("MINIDQN_CONFIG", ""),
		"experiment configuration JSON file, defaults are used if empty")
	flag.IntVar(&opts.episodes, "episodes", 0,
		"number of episodes, overrides the configuration if > 0")
	flag.IntVar(&opts.batchSize, "batch", 0,
		"learning batch size, overrides the configuration if > 0")
	flag.StringVar(&seed, "seed", getEnv("MINIDQN_SEED", "0"),
		"seed for the environment and agent")
	flag.StringVar(&opts.checkpointDir, "checkpoint-dir", "runs",
		"directory in which a directory per run is created")
	flag.IntVar(&opts.checkpointEvery, "checkpoint-every", 10,
		"checkpoint the network every N episodes, never if < 1")
	flag.StringVar(&opts.plotFile, "plot", "",
		"save a plot of the episodic returns to this file")
	flag.StringVar(&opts.traceFile, "trace", "",
		"write trace spans to this file, - for stdout")
	flag.BoolVar(&opts.progress, "progress", false, "display a progress bar")
	flag.Parse()

	if showVersion {
		fmt.Printf("minidqn %s (commit=%s)\n", version, commit)
		return
	}

	var err error
	opts.seed, err = strconv.ParseUint(seed, 10, 64)
	if err != nil {
		log.Fatal(fmt.Errorf("invalid seed %q: %v", seed, err))
	}

	if err := run(context.Background(), opts); err != nil {
		log.Fatal(err)
	}
}

// run trains an agent as described by opts
func run(ctx context.Context, opts options) error {
	config, err := loadConfig(opts.configFile)
	if err != nil {
		return err
	}
	if opts.episodes > 0 {
		config.Episodes = opts.episodes
	}
	if opts.batchSize > 0 {
		config.BatchSize = opts.batchSize
	}
	if err := config.Validate(); err != nil {
		return err
	}

	runID := uuid.New().String()
	dir := filepath.Join(opts.checkpointDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("run: could not create run directory: %v", err)
	}
	log.Infof("run %v: saving to %v", runID, dir)

	traceOut, closeTrace, err := traceWriter(opts.traceFile)
	if err != nil {
		return err
	}
	defer closeTrace()

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "minidqn",
		ServiceVersion: version,
		RunID:          runID,
		Seed:           opts.seed,
		Writer:         traceOut,
	})
	if err != nil {
		return fmt.Errorf("run: could not initialize tracing: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Infof("could not flush traces: %v", err)
		}
	}()

	returns := tracker.NewReturn(filepath.Join(dir, "returns.bin"))
	lengths := tracker.NewEpisodeLength(filepath.Join(dir, "lengths.bin"))
	exp, err := config.CreateExp(opts.seed,
		[]tracker.Tracker{returns, lengths}, nil)
	if err != nil {
		return err
	}

	if c, ok := networkCheckpointer(exp.Agent(), opts.checkpointEvery,
		dir); ok {
		exp.AddCheckpointer(c)
	}

	if opts.progress {
		bar := progressbar.NewProgressBar(os.Stderr, 40, config.Episodes,
			100*time.Millisecond)
		bar.Display()
		defer bar.Close()
		exp.OnEpisode(func(experiment.EpisodeResult) { bar.Increment() })
	}

	if _, err := exp.Run(ctx); err != nil {
		return err
	}
	if err := exp.Save(); err != nil {
		return err
	}

	if opts.plotFile != "" {
		err := tracker.Plot(returns.Data(), "Episodic return", "Return",
			opts.plotFile)
		if err != nil {
			return err
		}
	}

	return nil
}

// loadConfig reads an experiment configuration from a JSON file. If
// filename is empty, the default configuration is returned.
func loadConfig(filename string) (experiment.Config, error) {
	if filename == "" {
		return experiment.DefaultConfig(), nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return experiment.Config{}, fmt.Errorf("loadConfig: %v", err)
	}

	var config experiment.Config
	if err := json.Unmarshal(data, &config); err != nil {
		return experiment.Config{}, fmt.Errorf("loadConfig: %v", err)
	}
	return config, nil
}

// networkCheckpointer returns a checkpointer saving the network of an
// agent every n episodes into dir, if the agent has a serializable
// network
func networkCheckpointer(a agent.Agent, n int,
	dir string) (checkpointer.Checkpointer, bool) {
	nnAgent, ok := a.(agent.NNAgent)
	if !ok || n < 1 {
		return nil, false
	}
	net, ok := nnAgent.Network().(checkpointer.Serializable)
	if !ok {
		return nil, false
	}

	filename := checkpointer.EpisodeFilename(
		filepath.Join(dir, "model_ep_"), ".bin")
	return checkpointer.NewNEpisode(n, net, filename), true
}

// traceWriter returns the writer spans are exported to, nil if tracing
// output is disabled
func traceWriter(filename string) (io.Writer, func(), error) {
	switch filename {
	case "":
		return nil, func() {}, nil
	case "-":
		return os.Stdout, func() {}, nil
	}

	file, err := os.Create(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("traceWriter: %v", err)
	}
	return file, func() { file.Close() }, nil
}

func getEnv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
