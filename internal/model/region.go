package model

import (
	"fmt"
	"strings"
)

// Region identifies one of the game server shards.
type Region string

const (
	RegionAmericas Region = "americas"
	RegionAsia     Region = "asia"
	RegionEurope   Region = "europe"
)

// Regions returns all known regions in display order.
func Regions() []Region {
	return []Region{RegionAmericas, RegionAsia, RegionEurope}
}

// ParseRegion accepts the canonical names plus the short aliases used by the
// community tools ("west", "east", "ams", "sgp").
func ParseRegion(s string) (Region, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "americas", "america", "west", "us":
		return RegionAmericas, nil
	case "asia", "east", "sgp":
		return RegionAsia, nil
	case "europe", "eu", "ams":
		return RegionEurope, nil
	}
	return "", fmt.Errorf("unknown region %q", s)
}

// String implements fmt.Stringer.
func (r Region) String() string {
	return string(r)
}

// Market locations.
const (
	CityCaerleon     = "Caerleon"
	CityBridgewatch  = "Bridgewatch"
	CityFortSterling = "Fort Sterling"
	CityLymhurst     = "Lymhurst"
	CityMartlock     = "Martlock"
	CityThetford     = "Thetford"
	CityBrecilien    = "Brecilien"
	CityBlackMarket  = "Black Market"
)

// RoyalCities are the five royal continent cities.
func RoyalCities() []string {
	return []string{CityBridgewatch, CityFortSterling, CityLymhurst, CityMartlock, CityThetford}
}

// Cities returns every market location the dashboard tracks by default.
func Cities() []string {
	return []string{
		CityCaerleon,
		CityBridgewatch,
		CityFortSterling,
		CityLymhurst,
		CityMartlock,
		CityThetford,
		CityBrecilien,
		CityBlackMarket,
	}
}

// Item qualities.
const (
	QualityNormal      = 1
	QualityGood        = 2
	QualityOutstanding = 3
	QualityExcellent   = 4
	QualityMasterpiece = 5
)

// ValidQuality reports whether q is a known item quality.
func ValidQuality(q int) bool {
	return q >= QualityNormal && q <= QualityMasterpiece
}
