package api

import (
	"strings"
	"time"

	"github.com/rickgao/albion-omni/internal/model"
)

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses an upstream timestamp. Values without a zone are
// UTC. Empty, invalid and year-one ("no observation") values return the zero time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() <= 1 {
			return time.Time{}
		}
		return t.UTC()
	}

	return time.Time{}
}

// ToModel converts an APIPrice to model.MarketPrice.
func (p *APIPrice) ToModel(region model.Region) model.MarketPrice {
	return model.MarketPrice{
		Region:           region,
		ItemID:           p.ItemID,
		City:             p.City,
		Quality:          p.Quality,
		SellPriceMin:     p.SellPriceMin,
		SellPriceMinDate: ParseTimestamp(p.SellPriceMinDate),
		SellPriceMax:     p.SellPriceMax,
		SellPriceMaxDate: ParseTimestamp(p.SellPriceMaxDate),
		BuyPriceMin:      p.BuyPriceMin,
		BuyPriceMinDate:  ParseTimestamp(p.BuyPriceMinDate),
		BuyPriceMax:      p.BuyPriceMax,
		BuyPriceMaxDate:  ParseTimestamp(p.BuyPriceMaxDate),
	}
}

// ToModel converts an APIHistory to model.PriceHistory.
// Points with unparseable timestamps are dropped.
func (h *APIHistory) ToModel(region model.Region) model.PriceHistory {
	points := make([]model.HistoryPoint, 0, len(h.Data))
	for _, d := range h.Data {
		ts := ParseTimestamp(d.Timestamp)
		if ts.IsZero() {
			continue
		}
		points = append(points, model.HistoryPoint{
			Timestamp: ts,
			ItemCount: d.ItemCount,
			AvgPrice:  d.AvgPrice,
		})
	}

	return model.PriceHistory{
		Region:  region,
		ItemID:  h.ItemID,
		City:    h.Location,
		Quality: h.Quality,
		Points:  points,
	}
}

// ToModel converts an APIGoldPrice to model.GoldPrice.
func (g *APIGoldPrice) ToModel(region model.Region) model.GoldPrice {
	return model.GoldPrice{
		Region:    region,
		Timestamp: ParseTimestamp(g.Timestamp),
		Price:     g.Price,
	}
}

// ToModel converts an APICombatant to model.Combatant.
func (c *APICombatant) ToModel() model.Combatant {
	return model.Combatant{
		ID:               c.ID,
		Name:             c.Name,
		GuildID:          c.GuildID,
		GuildName:        c.GuildName,
		AllianceID:       c.AllianceID,
		AllianceName:     c.AllianceName,
		AverageItemPower: c.AverageItemPower,
		DamageDone:       c.DamageDone,
		KillFame:         c.KillFame,
	}
}

// ToModel converts an APIEvent to model.KillEvent.
func (e *APIEvent) ToModel(region model.Region) model.KillEvent {
	var participants []model.Combatant
	if len(e.Participants) > 0 {
		participants = make([]model.Combatant, len(e.Participants))
		for i := range e.Participants {
			participants[i] = e.Participants[i].ToModel()
		}
	}

	return model.KillEvent{
		Region:           region,
		EventID:          e.EventID,
		Timestamp:        ParseTimestamp(e.TimeStamp),
		TotalVictimFame:  e.TotalVictimKillFame,
		Location:         e.Location,
		Killer:           e.Killer.ToModel(),
		Victim:           e.Victim.ToModel(),
		Participants:     participants,
		GroupMemberCount: e.GroupMemberCount,
	}
}

// ToModel converts an APIGuild to model.Guild.
func (g *APIGuild) ToModel(region model.Region) model.Guild {
	return model.Guild{
		Region:       region,
		ID:           g.ID,
		Name:         g.Name,
		FounderName:  g.FounderName,
		Founded:      ParseTimestamp(g.Founded),
		AllianceID:   g.AllianceID,
		AllianceName: g.AllianceName,
		AllianceTag:  g.AllianceTag,
		KillFame:     g.KillFame,
		DeathFame:    g.DeathFame,
		MemberCount:  g.MemberCount,
	}
}

// ToLeaderboardEntry converts an APIGuild ranked at position rank (1-based).
func (g *APIGuild) ToLeaderboardEntry(region model.Region, snapshot time.Time, rng string, rank int) model.GuildLeaderboardEntry {
	return model.GuildLeaderboardEntry{
		Region:       region,
		SnapshotDate: snapshot,
		Range:        rng,
		Rank:         rank,
		GuildID:      g.ID,
		GuildName:    g.Name,
		AllianceName: g.AllianceName,
		KillFame:     g.KillFame,
		DeathFame:    g.DeathFame,
		AttacksWon:   g.AttacksWon,
		DefensesWon:  g.DefensesWon,
	}
}

// ToModel converts an APIPlayer to model.Player.
func (p *APIPlayer) ToModel(region model.Region) model.Player {
	return model.Player{
		Region:       region,
		ID:           p.ID,
		Name:         p.Name,
		GuildID:      p.GuildID,
		GuildName:    p.GuildName,
		AllianceID:   p.AllianceID,
		AllianceName: p.AllianceName,
		KillFame:     p.KillFame,
		DeathFame:    p.DeathFame,
		FameRatio:    p.FameRatio,
	}
}

// ToModel converts an APISearchResponse to model.SearchResult.
func (r *APISearchResponse) ToModel(region model.Region) model.SearchResult {
	out := model.SearchResult{
		Guilds:  make([]model.Guild, len(r.Guilds)),
		Players: make([]model.Player, len(r.Players)),
	}
	for i := range r.Guilds {
		out.Guilds[i] = r.Guilds[i].ToModel(region)
	}
	for i := range r.Players {
		out.Players[i] = r.Players[i].ToModel(region)
	}
	return out
}
