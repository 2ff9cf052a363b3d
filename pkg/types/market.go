package types

import (
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Sport is a sport entry returned by the odds provider's /sports endpoint.
type Sport struct {
	Key          string `json:"key"`
	Group        string `json:"group"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	HasOutrights bool   `json:"has_outrights"`
}

// RawEvent is one event with per-bookmaker odds, exactly as the provider returns it.
type RawEvent struct {
	ID           string         `json:"id"`
	SportKey     string         `json:"sport_key"`
	SportTitle   string         `json:"sport_title"`
	CommenceTime string         `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Bookmakers   []RawBookmaker `json:"bookmakers"`
}

// RawBookmaker holds the markets quoted by one bookmaker.
type RawBookmaker struct {
	Key        string      `json:"key"`
	Title      string      `json:"title"`
	LastUpdate string      `json:"last_update"`
	Markets    []RawMarket `json:"markets"`
}

// RawMarket is a single market (h2h, totals, spreads) quoted by a bookmaker.
type RawMarket struct {
	Key        string       `json:"key"`
	LastUpdate string       `json:"last_update"`
	Outcomes   []RawOutcome `json:"outcomes"`
}

// RawOutcome is one quoted outcome. Price and Point are decoded leniently so a
// single bad value never fails the whole payload.
type RawOutcome struct {
	Name  string    `json:"name"`
	Price FlexFloat `json:"price"`
	Point FlexFloat `json:"point"`
}

// FlexFloat decodes a JSON number or numeric string.
// Valid is false when the field was absent, null, or unparseable.
type FlexFloat struct {
	Value float64
	Valid bool
}

// NewFlexFloat returns a valid FlexFloat.
func NewFlexFloat(v float64) FlexFloat {
	return FlexFloat{Value: v, Valid: true}
}

// UnmarshalJSON never returns an error for bad values; it leaves Valid=false instead.
// Non-finite values ("NaN", "Infinity") are treated as bad values.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = FlexFloat{}

	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	f.Value = v
	f.Valid = true
	return nil
}

// MarshalJSON writes null for invalid values.
func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f.Value, 'f', -1, 64)), nil
}
