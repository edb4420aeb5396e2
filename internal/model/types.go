package model

import "time"

// -----------------------------------------------------------------------------
// Market Types
// -----------------------------------------------------------------------------

// MarketPrice is the current order-book summary for one item at one location.
type MarketPrice struct {
	Region           Region    `json:"region"`
	ItemID           string    `json:"item_id"` // e.g. "T4_BAG"
	City             string    `json:"city"`
	Quality          int       `json:"quality"`
	SellPriceMin     int64     `json:"sell_price_min"`
	SellPriceMinDate time.Time `json:"sell_price_min_date"`
	SellPriceMax     int64     `json:"sell_price_max"`
	SellPriceMaxDate time.Time `json:"sell_price_max_date"`
	BuyPriceMin      int64     `json:"buy_price_min"`
	BuyPriceMinDate  time.Time `json:"buy_price_min_date"`
	BuyPriceMax      int64     `json:"buy_price_max"`
	BuyPriceMaxDate  time.Time `json:"buy_price_max_date"`
}

// IsEmpty reports whether no order has ever been observed for this row.
func (p MarketPrice) IsEmpty() bool {
	return p.SellPriceMin == 0 && p.SellPriceMax == 0 && p.BuyPriceMin == 0 && p.BuyPriceMax == 0
}

// ObservedAt returns the most recent of the four observation timestamps.
func (p MarketPrice) ObservedAt() time.Time {
	latest := p.SellPriceMinDate
	for _, t := range []time.Time{p.SellPriceMaxDate, p.BuyPriceMinDate, p.BuyPriceMaxDate} {
		if t.After(latest) {
			latest = t
		}
	}
	return latest
}

// HistoryPoint is one aggregated bucket of traded volume.
type HistoryPoint struct {
	Timestamp time.Time `json:"timestamp"`
	ItemCount int64     `json:"item_count"`
	AvgPrice  int64     `json:"avg_price"`
}

// PriceHistory is the bucketed trade history for one item at one location.
type PriceHistory struct {
	Region  Region         `json:"region"`
	ItemID  string         `json:"item_id"`
	City    string         `json:"city"`
	Quality int            `json:"quality"`
	Points  []HistoryPoint `json:"points"`
}

// GoldPrice is the silver price of one gold at a point in time.
type GoldPrice struct {
	Region    Region    `json:"region"`
	Timestamp time.Time `json:"timestamp"`
	Price     int64     `json:"price"`
}

// -----------------------------------------------------------------------------
// PvP Types
// -----------------------------------------------------------------------------

// Combatant is a killer, victim or participant of a kill event.
type Combatant struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	GuildID          string  `json:"guild_id,omitempty"`
	GuildName        string  `json:"guild_name,omitempty"`
	AllianceID       string  `json:"alliance_id,omitempty"`
	AllianceName     string  `json:"alliance_name,omitempty"`
	AverageItemPower float64 `json:"average_item_power"`
	DamageDone       float64 `json:"damage_done,omitempty"`
	KillFame         int64   `json:"kill_fame,omitempty"`
}

// KillEvent is a single PvP kill reported by the Gameinfo API.
type KillEvent struct {
	Region           Region      `json:"region"`
	EventID          int64       `json:"event_id"`
	Timestamp        time.Time   `json:"timestamp"`
	TotalVictimFame  int64       `json:"total_victim_kill_fame"`
	Location         string      `json:"location,omitempty"`
	Killer           Combatant   `json:"killer"`
	Victim           Combatant   `json:"victim"`
	Participants     []Combatant `json:"participants,omitempty"`
	GroupMemberCount int         `json:"group_member_count"`
}

// Guild is a guild profile.
type Guild struct {
	Region       Region    `json:"region"`
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	FounderName  string    `json:"founder_name,omitempty"`
	Founded      time.Time `json:"founded,omitempty"`
	AllianceID   string    `json:"alliance_id,omitempty"`
	AllianceName string    `json:"alliance_name,omitempty"`
	AllianceTag  string    `json:"alliance_tag,omitempty"`
	KillFame     int64     `json:"kill_fame"`
	DeathFame    int64     `json:"death_fame"`
	MemberCount  int       `json:"member_count"`
}

// GuildLeaderboardEntry is one row of a dated guild ranking snapshot.
type GuildLeaderboardEntry struct {
	Region       Region    `json:"region"`
	SnapshotDate time.Time `json:"snapshot_date"`
	Range        string    `json:"range"` // "day", "week", "month"
	Rank         int       `json:"rank"`
	GuildID      string    `json:"guild_id"`
	GuildName    string    `json:"guild_name"`
	AllianceName string    `json:"alliance_name,omitempty"`
	KillFame     int64     `json:"kill_fame"`
	DeathFame    int64     `json:"death_fame"`
	AttacksWon   int64     `json:"attacks_won"`
	DefensesWon  int64     `json:"defenses_won"`
}

// Player is a player profile.
type Player struct {
	Region       Region  `json:"region"`
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	GuildID      string  `json:"guild_id,omitempty"`
	GuildName    string  `json:"guild_name,omitempty"`
	AllianceID   string  `json:"alliance_id,omitempty"`
	AllianceName string  `json:"alliance_name,omitempty"`
	KillFame     int64   `json:"kill_fame"`
	DeathFame    int64   `json:"death_fame"`
	FameRatio    float64 `json:"fame_ratio"`
}

// SearchResult holds guild and player name matches.
type SearchResult struct {
	Guilds  []Guild  `json:"guilds"`
	Players []Player `json:"players"`
}

// -----------------------------------------------------------------------------
// Operational Types
// -----------------------------------------------------------------------------

// ServerStatus is the game server status for a region.
type ServerStatus struct {
	Region    Region    `json:"region"`
	Status    string    `json:"status"` // "online", "offline", "starting"
	Message   string    `json:"message"`
	CheckedAt time.Time `json:"checked_at"`
}

// Online reports whether the server accepts logins.
func (s ServerStatus) Online() bool {
	return s.Status == "online"
}

// SyncRun records one execution of a sync job.
type SyncRun struct {
	ID         string    `json:"id"`
	Job        string    `json:"job"`
	Region     Region    `json:"region"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     string    `json:"status"` // "success", "failed"
	Fetched    int       `json:"fetched"`
	Written    int       `json:"written"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
}
