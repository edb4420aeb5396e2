// apitest calls each upstream service for a region and prints what comes back.
// Usage: go run ./cmd/apitest --region europe [--config configs/dashboard.local.yaml]
//
// Without --config the public endpoints from the built-in defaults are used.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/albion-omni/internal/api"
	"github.com/rickgao/albion-omni/internal/arbitrage"
	"github.com/rickgao/albion-omni/internal/config"
	"github.com/rickgao/albion-omni/internal/model"
)

func main() {
	configPath := flag.String("config", "", "optional path to config file")
	region := flag.String("region", "americas", "region to test")
	item := flag.String("item", "T4_BAG", "item id for market checks")
	search := flag.String("search", "albion", "search term for gameinfo checks")
	verbose := flag.Bool("verbose", false, "print full response JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := &config.Config{}
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}
	cfg.ApplyDefaults()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	upstream, err := api.NewRegional(cfg.Upstream, logger)
	if err != nil {
		logger.Error("failed to create clients", "error", err)
		os.Exit(1)
	}
	rc, err := upstream.Lookup(*region)
	if err != nil {
		logger.Error("bad region", "error", err)
		os.Exit(1)
	}

	t := &tester{verbose: *verbose}

	t.check(ctx, "status", func(ctx context.Context) (any, string, error) {
		st, err := rc.Status.GetStatus(ctx)
		if err != nil {
			return nil, "", err
		}
		return st, fmt.Sprintf("server %s: %s", st.Status, st.Message), nil
	})

	t.check(ctx, "market prices", func(ctx context.Context) (any, string, error) {
		prices, err := rc.Market.GetPrices(ctx, []string{*item}, model.Cities(), []int{1})
		if err != nil {
			return nil, "", err
		}
		listed := 0
		for _, p := range prices {
			if !p.IsEmpty() {
				listed++
			}
		}
		opps := arbitrage.NewScanner().Scan(arbitrage.ListingsFromPrices(prices, 1), 0, 3)
		return prices, fmt.Sprintf("%d rows, %d with listings, %d profitable routes", len(prices), listed, len(opps)), nil
	})

	t.check(ctx, "market history", func(ctx context.Context) (any, string, error) {
		history, err := rc.Market.GetHistory(ctx, []string{*item}, api.HistoryOptions{TimeScale: 24})
		if err != nil {
			return nil, "", err
		}
		points := 0
		for _, h := range history {
			points += len(h.Points)
		}
		return history, fmt.Sprintf("%d series, %d points", len(history), points), nil
	})

	t.check(ctx, "gold prices", func(ctx context.Context) (any, string, error) {
		gold, err := rc.Market.GetGoldPrices(ctx, 5, "", "")
		if err != nil {
			return nil, "", err
		}
		if len(gold) == 0 {
			return gold, "no gold prices", nil
		}
		return gold, fmt.Sprintf("%d points, latest %d at %s", len(gold), gold[0].Price, gold[0].Timestamp.Format(time.RFC3339)), nil
	})

	var eventID int64
	t.check(ctx, "recent kill events", func(ctx context.Context) (any, string, error) {
		events, err := rc.Gameinfo.GetRecentEvents(ctx, 10, 0)
		if err != nil {
			return nil, "", err
		}
		if len(events) > 0 {
			eventID = events[0].EventID
		}
		return events, fmt.Sprintf("%d events", len(events)), nil
	})

	if eventID != 0 {
		t.check(ctx, "kill event", func(ctx context.Context) (any, string, error) {
			ev, err := rc.Gameinfo.GetEvent(ctx, eventID)
			if err != nil {
				return nil, "", err
			}
			return ev, fmt.Sprintf("event %d: %s killed %s", ev.EventID, ev.Killer.Name, ev.Victim.Name), nil
		})
	}

	var guildID string
	t.check(ctx, "search", func(ctx context.Context) (any, string, error) {
		res, err := rc.Gameinfo.Search(ctx, *search)
		if err != nil {
			return nil, "", err
		}
		if len(res.Guilds) > 0 {
			guildID = res.Guilds[0].ID
		}
		return res, fmt.Sprintf("%d guilds, %d players", len(res.Guilds), len(res.Players)), nil
	})

	if guildID != "" {
		t.check(ctx, "guild", func(ctx context.Context) (any, string, error) {
			g, err := rc.Gameinfo.GetGuild(ctx, guildID)
			if err != nil {
				return nil, "", err
			}
			return g, fmt.Sprintf("%s (%d members)", g.Name, g.MemberCount), nil
		})
	}

	t.check(ctx, "top guilds", func(ctx context.Context) (any, string, error) {
		guilds, err := rc.Gameinfo.GetTopGuilds(ctx, "week", 5, 0)
		if err != nil {
			return nil, "", err
		}
		return guilds, fmt.Sprintf("%d guilds", len(guilds)), nil
	})

	fmt.Printf("\n%d passed, %d failed\n", t.passed, t.failed)
	for name, state := range upstream.BreakerStates() {
		if state != "closed" {
			fmt.Printf("breaker %s is %s\n", name, state)
		}
	}
	if t.failed > 0 {
		os.Exit(1)
	}
}

type tester struct {
	verbose        bool
	passed, failed int
}

func (t *tester) check(ctx context.Context, name string, fn func(context.Context) (any, string, error)) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	body, summary, err := fn(ctx)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		t.failed++
		fmt.Printf("FAIL %-20s %8s  %v\n", name, elapsed, err)
		return
	}
	t.passed++
	fmt.Printf("ok   %-20s %8s  %s\n", name, elapsed, summary)

	if t.verbose {
		data, _ := json.MarshalIndent(body, "     ", "  ")
		fmt.Printf("     %s\n", data)
	}
}
