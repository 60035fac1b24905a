package rostergen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/acerank/internal/domain/types"
	"github.com/okian/acerank/pkg/logger"
)

// How long to poll the leaderboard after submitting a snapshot.
const (
	pollInterval = 200 * time.Millisecond
	pollBudget   = 15 * time.Second
)

var errNotScored = errors.New("snapshot not scored within budget")

// Run generates one roster snapshot, submits it to the service, waits for
// scoring, and logs the resulting leaderboard.
func Run(ctx context.Context, cfg *Config) error {
	cfg.normalize()
	log := logger.Get().Named("rostergen")

	snapshot := Generate(cfg)
	log.Info(ctx, "generated roster snapshot",
		logger.String("snapshotID", snapshot.ID),
		logger.String("clanTag", snapshot.ClanTag),
		logger.Int("players", len(snapshot.Players)),
	)

	client := &http.Client{Timeout: cfg.Timeout}

	if err := submit(ctx, client, cfg.BaseURL, snapshot); err != nil {
		return err
	}

	entries, err := awaitLeaderboard(ctx, client, cfg.BaseURL, cfg.TopN, len(snapshot.Players))
	if err != nil {
		return err
	}

	for _, e := range entries {
		log.Info(ctx, "leaderboard entry",
			logger.Int("rank", e.Rank),
			logger.String("tag", e.Tag),
			logger.String("name", e.Name),
			logger.Float64("score", e.Score),
			logger.Float64("availability", e.Availability),
		)
	}
	return nil
}

func submit(ctx context.Context, client *http.Client, baseURL string, snapshot any) error {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/snapshots", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build snapshot request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("submit snapshot: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("submit snapshot: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// awaitLeaderboard polls until the board holds the full roster or the
// budget runs out.
func awaitLeaderboard(ctx context.Context, client *http.Client, baseURL string, topN, rosterSize int) ([]types.Entry, error) {
	deadline := time.Now().Add(pollBudget)
	want := min(topN, rosterSize)

	for {
		entries, err := fetchLeaderboard(ctx, client, baseURL, topN)
		if err == nil && len(entries) >= want {
			return entries, nil
		}
		if time.Now().After(deadline) {
			if err != nil {
				return nil, err
			}
			return nil, errNotScored
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("await leaderboard: %w", ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func fetchLeaderboard(ctx context.Context, client *http.Client, baseURL string, topN int) ([]types.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/leaderboard?limit=%d", baseURL, topN), nil)
	if err != nil {
		return nil, fmt.Errorf("build leaderboard request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch leaderboard: unexpected status %d", resp.StatusCode)
	}

	var entries []types.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}
	return entries, nil
}
