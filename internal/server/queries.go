package server

import (
	"strings"

	"github.com/rickgao/albion-omni/internal/config"
)

// Request query shapes. Each struct reads its own parameters and applies
// defaults; validation tags enforce bounds.

type pricesQuery struct {
	Items     []string `query:"items" validate:"required,min=1,max=300,dive,max=64"`
	Locations []string `query:"locations" validate:"max=20,dive,max=32"`
	Qualities []int    `query:"qualities" validate:"max=5,dive,min=1,max=5"`
}

func (q *pricesQuery) read(qr *queryReader) {
	q.Items = qr.list("items")
	q.Locations = qr.list("locations")
	q.Qualities = qr.integers("qualities")
}

type historyQuery struct {
	Items     []string `query:"items" validate:"required,min=1,max=100,dive,max=64"`
	Locations []string `query:"locations" validate:"max=20,dive,max=32"`
	Qualities []int    `query:"qualities" validate:"max=5,dive,min=1,max=5"`
	TimeScale int      `query:"time_scale" validate:"oneof=1 6 24"`
	From      string   `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To        string   `query:"to" validate:"omitempty,datetime=2006-01-02"`
}

func (q *historyQuery) read(qr *queryReader) {
	q.Items = qr.list("items")
	q.Locations = qr.list("locations")
	q.Qualities = qr.integers("qualities")
	q.TimeScale = qr.integer("time_scale", 24)
	q.From = qr.str("from", "")
	q.To = qr.str("to", "")
}

type storedPricesQuery struct {
	Item string `query:"item" validate:"required,max=64"`
}

func (q *storedPricesQuery) read(qr *queryReader) {
	q.Item = strings.ToUpper(qr.str("item", ""))
}

type goldQuery struct {
	Count int `query:"count" validate:"min=1,max=1000"`
}

func (q *goldQuery) read(qr *queryReader) {
	q.Count = qr.integer("count", config.DefaultGoldCount)
}

type goldHistoryQuery struct {
	Since string `query:"since" validate:"omitempty,datetime=2006-01-02"`
	Limit int    `query:"limit" validate:"min=1,max=1000"`
}

func (q *goldHistoryQuery) read(qr *queryReader) {
	q.Since = qr.str("since", "")
	q.Limit = qr.integer("limit", 168)
}

type arbitrageQuery struct {
	Items     []string `query:"items" validate:"required,min=1,max=100,dive,max=64"`
	Locations []string `query:"locations" validate:"max=20,dive,max=32"`
	Quality   int      `query:"quality" validate:"min=1,max=5"`
	Quantity  int      `query:"quantity" validate:"min=1,max=100000"`
	MinROI    float64  `query:"min_roi" validate:"gte=-100,lte=100000"`
	Limit     int      `query:"limit" validate:"min=1,max=500"`
}

func (q *arbitrageQuery) read(qr *queryReader) {
	q.Items = qr.list("items")
	q.Locations = qr.list("locations")
	q.Quality = qr.integer("quality", 1)
	q.Quantity = qr.integer("quantity", 1)
	q.MinROI = qr.number("min_roi", 0)
	q.Limit = qr.integer("limit", 50)
}

type killsQuery struct {
	Limit  int `query:"limit" validate:"min=1,max=51"`
	Offset int `query:"offset" validate:"min=0,max=1000"`
}

func (q *killsQuery) read(qr *queryReader) {
	q.Limit = qr.integer("limit", 20)
	q.Offset = qr.integer("offset", 0)
}

type recentKillsQuery struct {
	Limit int `query:"limit" validate:"min=1,max=500"`
}

func (q *recentKillsQuery) read(qr *queryReader) {
	q.Limit = qr.integer("limit", 50)
}

type searchQuery struct {
	Q string `query:"q" validate:"required,min=2,max=64"`
}

func (q *searchQuery) read(qr *queryReader) {
	q.Q = qr.str("q", "")
}

type topGuildsQuery struct {
	Range  string `query:"range" validate:"oneof=day week month"`
	Limit  int    `query:"limit" validate:"min=1,max=100"`
	Offset int    `query:"offset" validate:"min=0,max=1000"`
}

func (q *topGuildsQuery) read(qr *queryReader) {
	q.Range = strings.ToLower(qr.str("range", config.DefaultLeaderboardRange))
	q.Limit = qr.integer("limit", 10)
	q.Offset = qr.integer("offset", 0)
}

type leaderboardQuery struct {
	Range string `query:"range" validate:"oneof=day week month"`
	Date  string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	Limit int    `query:"limit" validate:"min=1,max=500"`
}

func (q *leaderboardQuery) read(qr *queryReader) {
	q.Range = strings.ToLower(qr.str("range", config.DefaultLeaderboardRange))
	q.Date = qr.str("date", "")
	q.Limit = qr.integer("limit", config.DefaultLeaderboardLimit)
}

type invalidateQuery struct {
	Prefix string `query:"prefix" validate:"max=200"`
}

func (q *invalidateQuery) read(qr *queryReader) {
	q.Prefix = qr.str("prefix", "")
}

// idParam validates a Gameinfo guild or player id taken from the path.
type idParam struct {
	ID string `query:"id" validate:"albion_id"`
}
