package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/albion-omni/internal/model"
)

// Kill events never change once reported, so conflicts are ignored.
const insertKillEventSQL = `
	INSERT INTO kill_events (
		region, event_id, ts, total_victim_fame, location,
		killer_id, killer_name, killer_guild,
		victim_id, victim_name, victim_guild,
		group_member_count, payload
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (region, event_id) DO NOTHING
`

const recentKillsSQL = `
	SELECT payload
	FROM kill_events
	WHERE region = $1
	ORDER BY ts DESC, event_id DESC
	LIMIT $2
`

type killRow struct {
	event   model.KillEvent
	payload []byte
}

// InsertKillEvents stores events not seen before and returns them in input order.
func (s *Store) InsertKillEvents(ctx context.Context, events []model.KillEvent) ([]model.KillEvent, WriteStats, error) {
	rows := make([]killRow, 0, len(events))
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return nil, WriteStats{}, fmt.Errorf("encode kill event %d: %w", e.EventID, err)
		}
		rows = append(rows, killRow{event: e, payload: payload})
	}

	var inserted []model.KillEvent
	stats, err := upsert(ctx, s, "kill_events", insertKillEventSQL, rows, func(r killRow) []any {
		e := r.event
		return []any{
			string(e.Region), e.EventID, e.Timestamp, e.TotalVictimFame, e.Location,
			e.Killer.ID, e.Killer.Name, e.Killer.GuildName,
			e.Victim.ID, e.Victim.Name, e.Victim.GuildName,
			e.GroupMemberCount, r.payload,
		}
	}, func(r killRow, affected int64) {
		if affected > 0 {
			inserted = append(inserted, r.event)
		}
	})
	return inserted, stats, err
}

// RecentKills returns the newest stored kill events.
func (s *Store) RecentKills(ctx context.Context, region model.Region, limit int) ([]model.KillEvent, error) {
	rows, err := s.db.Query(ctx, recentKillsSQL, string(region), limit)
	if err != nil {
		return nil, fmt.Errorf("query recent kills: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.KillEvent, error) {
		var (
			payload []byte
			e       model.KillEvent
		)
		if err := row.Scan(&payload); err != nil {
			return e, err
		}
		err := json.Unmarshal(payload, &e)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan recent kills: %w", err)
	}
	return events, nil
}
