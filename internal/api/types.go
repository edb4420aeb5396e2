package api

// -----------------------------------------------------------------------------
// AODP (market data) Types
// -----------------------------------------------------------------------------

// APIPrice is one row of /api/v2/stats/prices.
type APIPrice struct {
	ItemID           string `json:"item_id"`
	City             string `json:"city"`
	Quality          int    `json:"quality"`
	SellPriceMin     int64  `json:"sell_price_min"`
	SellPriceMinDate string `json:"sell_price_min_date"`
	SellPriceMax     int64  `json:"sell_price_max"`
	SellPriceMaxDate string `json:"sell_price_max_date"`
	BuyPriceMin      int64  `json:"buy_price_min"`
	BuyPriceMinDate  string `json:"buy_price_min_date"`
	BuyPriceMax      int64  `json:"buy_price_max"`
	BuyPriceMaxDate  string `json:"buy_price_max_date"`
}

// APIHistory is one series of /api/v2/stats/history.
type APIHistory struct {
	Location string            `json:"location"`
	ItemID   string            `json:"item_id"`
	Quality  int               `json:"quality"`
	Data     []APIHistoryPoint `json:"data"`
}

// APIHistoryPoint is one bucket of an APIHistory series.
type APIHistoryPoint struct {
	ItemCount int64  `json:"item_count"`
	AvgPrice  int64  `json:"avg_price"`
	Timestamp string `json:"timestamp"`
}

// APIGoldPrice is one row of /api/v2/stats/gold.
type APIGoldPrice struct {
	Price     int64  `json:"price"`
	Timestamp string `json:"timestamp"`
}

// HistoryOptions contains optional filters for GetHistory.
type HistoryOptions struct {
	Locations []string
	Qualities []int
	TimeScale int // 1 (hourly) or 24 (daily)
	From      string
	To        string
}

// -----------------------------------------------------------------------------
// Gameinfo Types
// -----------------------------------------------------------------------------

// APICombatant is a killer, victim or participant of an APIEvent.
type APICombatant struct {
	ID               string  `json:"Id"`
	Name             string  `json:"Name"`
	GuildID          string  `json:"GuildId"`
	GuildName        string  `json:"GuildName"`
	AllianceID       string  `json:"AllianceId"`
	AllianceName     string  `json:"AllianceName"`
	AverageItemPower float64 `json:"AverageItemPower"`
	DamageDone       float64 `json:"DamageDone"`
	KillFame         int64   `json:"KillFame"`
}

// APIEvent is a kill event from /events.
type APIEvent struct {
	EventID             int64          `json:"EventId"`
	TimeStamp           string         `json:"TimeStamp"`
	TotalVictimKillFame int64          `json:"TotalVictimKillFame"`
	Location            string         `json:"Location"`
	Killer              APICombatant   `json:"Killer"`
	Victim              APICombatant   `json:"Victim"`
	Participants        []APICombatant `json:"Participants"`
	GroupMemberCount    int            `json:"groupMemberCount"`
}

// APIGuild is a guild profile from /guilds/{id} and /guilds/topguildsbyattacks.
type APIGuild struct {
	ID           string `json:"Id"`
	Name         string `json:"Name"`
	FounderName  string `json:"FounderName"`
	Founded      string `json:"Founded"`
	AllianceID   string `json:"AllianceId"`
	AllianceName string `json:"AllianceName"`
	AllianceTag  string `json:"AllianceTag"`
	KillFame     int64  `json:"killFame"`
	DeathFame    int64  `json:"DeathFame"`
	MemberCount  int    `json:"MemberCount"`
	AttacksWon   int64  `json:"AttacksWon"`
	DefensesWon  int64  `json:"DefensesWon"`
}

// APIPlayer is a player profile from /players/{id} and /guilds/{id}/members.
type APIPlayer struct {
	ID           string  `json:"Id"`
	Name         string  `json:"Name"`
	GuildID      string  `json:"GuildId"`
	GuildName    string  `json:"GuildName"`
	AllianceID   string  `json:"AllianceId"`
	AllianceName string  `json:"AllianceName"`
	KillFame     int64   `json:"KillFame"`
	DeathFame    int64   `json:"DeathFame"`
	FameRatio    float64 `json:"FameRatio"`
}

// APISearchResponse is the response from /search.
type APISearchResponse struct {
	Guilds  []APIGuild  `json:"guilds"`
	Players []APIPlayer `json:"players"`
}

// -----------------------------------------------------------------------------
// Server status Types
// -----------------------------------------------------------------------------

// APIStatus is the body served by the status host.
type APIStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
