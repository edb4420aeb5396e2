package snapshot

import (
	"log/slog"

	"github.com/rickgao/albion-omni/internal/api"
	"github.com/rickgao/albion-omni/internal/config"
	"github.com/rickgao/albion-omni/internal/store"
)

// DefaultJobs builds the sync jobs for one region from config.
func DefaultJobs(cfg config.SyncConfig, clients *api.RegionClients, st *store.Store, pub Publisher, logger *slog.Logger) []Job {
	if logger == nil {
		logger = slog.Default()
	}
	return []Job{
		NewMarketPricesJob(clients.Market, st, pub, cfg.Items, cfg.Locations, cfg.Qualities, logger),
		NewGoldPricesJob(clients.Market, st, pub, cfg.GoldCount, logger),
		NewKillEventsJob(clients.Gameinfo, st, pub, cfg.KillPages, logger),
		NewGuildLeaderboardJob(clients.Gameinfo, st, pub, clients.Region, cfg.LeaderboardRange, cfg.LeaderboardLimit, logger),
		NewPriceHistoryJob(clients.Market, st, cfg.Items, cfg.Locations, cfg.Qualities, cfg.HistoryTimeScale, logger),
	}
}
