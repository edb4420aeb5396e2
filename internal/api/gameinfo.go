package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rickgao/albion-omni/internal/model"
)

// Gameinfo paging bounds. The API rejects larger values.
const (
	MaxEventsLimit  = 51
	MaxEventsOffset = 1000
)

// GameinfoClient wraps a Client pointed at a Gameinfo host.
type GameinfoClient struct {
	client *Client
	region model.Region
}

// NewGameinfoClient creates a Gameinfo client for region.
func NewGameinfoClient(client *Client, region model.Region) *GameinfoClient {
	return &GameinfoClient{client: client, region: region}
}

// Client returns the underlying REST client.
func (g *GameinfoClient) Client() *Client {
	return g.client
}

// GetRecentEvents fetches a page of the most recent kill events.
// limit is clamped to [1, MaxEventsLimit] and offset to [0, MaxEventsOffset].
func (g *GameinfoClient) GetRecentEvents(ctx context.Context, limit, offset int) ([]model.KillEvent, error) {
	limit = clamp(limit, 1, MaxEventsLimit)
	offset = clamp(offset, 0, MaxEventsOffset)

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var resp []APIEvent
	if err := g.client.get(ctx, "/events", query, &resp); err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}

	events := make([]model.KillEvent, len(resp))
	for i := range resp {
		events[i] = resp[i].ToModel(g.region)
	}
	return events, nil
}

// GetEvent fetches a single kill event.
func (g *GameinfoClient) GetEvent(ctx context.Context, eventID int64) (*model.KillEvent, error) {
	var resp APIEvent
	path := "/events/" + strconv.FormatInt(eventID, 10)
	if err := g.client.get(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get event %d: %w", eventID, err)
	}

	event := resp.ToModel(g.region)
	return &event, nil
}

// Search finds guilds and players by name.
func (g *GameinfoClient) Search(ctx context.Context, q string) (*model.SearchResult, error) {
	query := url.Values{}
	query.Set("q", q)

	var resp APISearchResponse
	if err := g.client.get(ctx, "/search", query, &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", q, err)
	}

	result := resp.ToModel(g.region)
	return &result, nil
}

// GetGuild fetches a guild profile.
func (g *GameinfoClient) GetGuild(ctx context.Context, guildID string) (*model.Guild, error) {
	var resp APIGuild
	if err := g.client.get(ctx, "/guilds/"+url.PathEscape(guildID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get guild %s: %w", guildID, err)
	}

	guild := resp.ToModel(g.region)
	return &guild, nil
}

// GetGuildMembers fetches the member list of a guild.
func (g *GameinfoClient) GetGuildMembers(ctx context.Context, guildID string) ([]model.Player, error) {
	var resp []APIPlayer
	if err := g.client.get(ctx, "/guilds/"+url.PathEscape(guildID)+"/members", nil, &resp); err != nil {
		return nil, fmt.Errorf("get guild members %s: %w", guildID, err)
	}

	players := make([]model.Player, len(resp))
	for i := range resp {
		players[i] = resp[i].ToModel(g.region)
	}
	return players, nil
}

// GetPlayer fetches a player profile.
func (g *GameinfoClient) GetPlayer(ctx context.Context, playerID string) (*model.Player, error) {
	var resp APIPlayer
	if err := g.client.get(ctx, "/players/"+url.PathEscape(playerID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get player %s: %w", playerID, err)
	}

	player := resp.ToModel(g.region)
	return &player, nil
}

// GetTopGuilds fetches guilds ranked by attacks won for range
// ("day", "week" or "month").
func (g *GameinfoClient) GetTopGuilds(ctx context.Context, rng string, limit, offset int) ([]APIGuild, error) {
	query := url.Values{}
	query.Set("range", rng)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	var resp []APIGuild
	if err := g.client.get(ctx, "/guilds/topguildsbyattacks", query, &resp); err != nil {
		return nil, fmt.Errorf("get top guilds: %w", err)
	}
	return resp, nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
