package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/albion-omni/internal/model"
)

const upsertLeaderboardSQL = `
	INSERT INTO guild_leaderboard (
		region, snapshot_date, time_range, guild_id, rank, guild_name,
		alliance_name, kill_fame, death_fame, attacks_won, defenses_won
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (region, snapshot_date, time_range, guild_id) DO UPDATE SET
		rank          = EXCLUDED.rank,
		guild_name    = EXCLUDED.guild_name,
		alliance_name = EXCLUDED.alliance_name,
		kill_fame     = EXCLUDED.kill_fame,
		death_fame    = EXCLUDED.death_fame,
		attacks_won   = EXCLUDED.attacks_won,
		defenses_won  = EXCLUDED.defenses_won
	WHERE (guild_leaderboard.rank, guild_leaderboard.kill_fame, guild_leaderboard.death_fame,
		guild_leaderboard.attacks_won, guild_leaderboard.defenses_won)
		IS DISTINCT FROM (EXCLUDED.rank, EXCLUDED.kill_fame, EXCLUDED.death_fame,
		EXCLUDED.attacks_won, EXCLUDED.defenses_won)
`

// A NULL date selects the most recent snapshot for the range.
const leaderboardSQL = `
	SELECT region, snapshot_date, time_range, rank, guild_id, guild_name,
		COALESCE(alliance_name, ''), kill_fame, death_fame, attacks_won, defenses_won
	FROM guild_leaderboard
	WHERE region = $1 AND time_range = $2
		AND snapshot_date = COALESCE($3::date, (
			SELECT max(snapshot_date) FROM guild_leaderboard
			WHERE region = $1 AND time_range = $2
		))
	ORDER BY rank
	LIMIT $4
`

// UpsertGuildLeaderboard writes a leaderboard snapshot.
func (s *Store) UpsertGuildLeaderboard(ctx context.Context, entries []model.GuildLeaderboardEntry) (WriteStats, error) {
	return upsert(ctx, s, "guild_leaderboard", upsertLeaderboardSQL, entries, func(e model.GuildLeaderboardEntry) []any {
		return []any{
			string(e.Region), e.SnapshotDate, e.Range, e.GuildID, e.Rank, e.GuildName,
			e.AllianceName, e.KillFame, e.DeathFame, e.AttacksWon, e.DefensesWon,
		}
	}, nil)
}

// GuildLeaderboard returns a stored snapshot ordered by rank. A zero date
// selects the latest snapshot.
func (s *Store) GuildLeaderboard(ctx context.Context, region model.Region, rng string, date time.Time, limit int) ([]model.GuildLeaderboardEntry, error) {
	rows, err := s.db.Query(ctx, leaderboardSQL, string(region), rng, nullTime(date), limit)
	if err != nil {
		return nil, fmt.Errorf("query guild leaderboard: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.GuildLeaderboardEntry, error) {
		var (
			e          model.GuildLeaderboardEntry
			regionName string
		)
		err := row.Scan(
			&regionName, &e.SnapshotDate, &e.Range, &e.Rank, &e.GuildID, &e.GuildName,
			&e.AllianceName, &e.KillFame, &e.DeathFame, &e.AttacksWon, &e.DefensesWon,
		)
		e.Region = model.Region(regionName)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan guild leaderboard: %w", err)
	}
	return entries, nil
}
