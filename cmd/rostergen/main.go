package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/acerank/internal/rostergen"
	"github.com/okian/acerank/pkg/logger"
)

const runTimeout = 2 * time.Minute

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		players = flag.Int("players", rostergen.DefaultPlayers, "Roster size of the generated snapshot")
		topN    = flag.Int("top", rostergen.DefaultTopN, "Number of leaderboard entries to fetch")
		timeout = flag.Duration("timeout", rostergen.DefaultTimeout, "HTTP request timeout")
		seed    = flag.Uint64("seed", 0, "Generation seed; 0 picks a random one")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg := &rostergen.Config{
		BaseURL: *baseURL,
		Players: *players,
		TopN:    *topN,
		Timeout: *timeout,
		Seed:    *seed,
		Verbose: *verbose,
	}

	if err := rostergen.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("rostergen failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
