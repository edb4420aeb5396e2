package arbitrage

import (
	"cmp"
	"slices"

	"github.com/rickgao/albion-omni/internal/model"
)

// Fee rates charged on each market order.
const (
	DefaultMarketTax = 0.045
	DefaultSetupFee  = 0.015
)

// Transport cost model: silver per zone crossed, scaled by load.
const (
	silverPerZone     = 100.0
	zonesFromCaerleon = 8
	zonesCrossRoyal   = 12
	unitsPerLoad      = 100.0
)

// Listing is one item's prices in one city.
type Listing struct {
	ItemID    string  `json:"item_id"`
	ItemName  string  `json:"item_name"`
	City      string  `json:"city"`
	BuyPrice  float64 `json:"buy_price"`  // cost to acquire here
	SellPrice float64 `json:"sell_price"` // proceeds when selling here
	Quantity  int     `json:"quantity"`
}

// Opportunity is a priced trade route.
type Opportunity struct {
	ItemID        string  `json:"item_id"`
	ItemName      string  `json:"item_name"`
	BuyCity       string  `json:"buy_city"`
	SellCity      string  `json:"sell_city"`
	BuyPrice      float64 `json:"buy_price"`
	SellPrice     float64 `json:"sell_price"`
	Quantity      int     `json:"quantity"`
	Profit        float64 `json:"profit"`
	ROI           float64 `json:"roi"`
	Taxes         float64 `json:"taxes"`
	TransportCost float64 `json:"transport_cost"`
}

// Scanner prices trade routes.
type Scanner struct {
	MarketTax float64
	SetupFee  float64
}

// NewScanner returns a Scanner with the game's fee rates.
func NewScanner() *Scanner {
	return &Scanner{MarketTax: DefaultMarketTax, SetupFee: DefaultSetupFee}
}

// Scan returns routes with ROI of at least minROI percent, best first,
// at most maxResults of them (no cap when maxResults <= 0).
func (s *Scanner) Scan(listings []Listing, minROI float64, maxResults int) []Opportunity {
	var (
		order  []string
		byItem = make(map[string][]Listing)
	)
	for _, l := range listings {
		if _, seen := byItem[l.ItemID]; !seen {
			order = append(order, l.ItemID)
		}
		byItem[l.ItemID] = append(byItem[l.ItemID], l)
	}

	var out []Opportunity
	for _, id := range order {
		cities := byItem[id]
		for _, src := range cities {
			for _, dst := range cities {
				if src.City == dst.City {
					continue
				}
				if src.BuyPrice <= 0 || dst.SellPrice <= 0 {
					continue
				}
				qty := min(src.Quantity, dst.Quantity)
				if qty <= 0 {
					continue
				}

				opp := s.price(src, dst, qty)
				if opp.ROI >= minROI {
					out = append(out, opp)
				}
			}
		}
	}

	slices.SortStableFunc(out, compareOpportunities)

	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}

// compareOpportunities orders by ROI then profit, both descending, then by
// item and route names.
func compareOpportunities(a, b Opportunity) int {
	if c := cmp.Compare(b.ROI, a.ROI); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Profit, a.Profit); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ItemID, b.ItemID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.BuyCity, b.BuyCity); c != 0 {
		return c
	}
	return cmp.Compare(a.SellCity, b.SellCity)
}

func (s *Scanner) price(src, dst Listing, quantity int) Opportunity {
	qty := float64(quantity)
	rate := s.MarketTax + s.SetupFee

	buyTotal := src.BuyPrice * qty
	buyTaxes := buyTotal * rate
	transport := TransportCost(src.City, dst.City, qty)
	totalCost := buyTotal + buyTaxes + transport

	sellTotal := dst.SellPrice * qty
	sellTaxes := sellTotal * rate

	profit := sellTotal - sellTaxes - totalCost
	roi := 0.0
	if totalCost > 0 {
		roi = profit / totalCost * 100
	}

	name := src.ItemName
	if name == "" {
		name = src.ItemID
	}

	return Opportunity{
		ItemID:        src.ItemID,
		ItemName:      name,
		BuyCity:       src.City,
		SellCity:      dst.City,
		BuyPrice:      src.BuyPrice,
		SellPrice:     dst.SellPrice,
		Quantity:      quantity,
		Profit:        profit,
		ROI:           roi,
		Taxes:         buyTaxes + sellTaxes,
		TransportCost: transport,
	}
}

// Distance returns the number of zones between two cities.
func Distance(from, to string) int {
	if (from == model.CityCaerleon && isRoyal(to)) || (to == model.CityCaerleon && isRoyal(from)) {
		return zonesFromCaerleon
	}
	return zonesCrossRoyal
}

// TransportCost estimates the silver spent hauling quantity units.
func TransportCost(from, to string, quantity float64) float64 {
	load := max(quantity/unitsPerLoad, 1)
	return float64(Distance(from, to)) * silverPerZone * load
}

func isRoyal(city string) bool {
	return slices.Contains(model.RoyalCities(), city)
}

// ListingsFromPrices turns market prices into listings. Both legs use the
// cheapest sell order: it is what a buyer pays at the source and what a
// seller has to undercut at the destination. Rows without a sell order are
// dropped.
func ListingsFromPrices(prices []model.MarketPrice, quantity int) []Listing {
	out := make([]Listing, 0, len(prices))
	for _, p := range prices {
		if p.SellPriceMin <= 0 {
			continue
		}
		out = append(out, Listing{
			ItemID:    p.ItemID,
			ItemName:  p.ItemID,
			City:      p.City,
			BuyPrice:  float64(p.SellPriceMin),
			SellPrice: float64(p.SellPriceMin),
			Quantity:  quantity,
		})
	}
	return out
}
