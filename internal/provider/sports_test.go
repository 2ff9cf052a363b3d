package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/christopherhenripage/odds-trader/pkg/types"
)

func TestFilterSports(t *testing.T) {
	available := []types.Sport{
		{Key: "basketball_nba", Active: true},
		{Key: "basketball_nba_championship_winner", Active: true},
		{Key: "americanfootball_nfl", Active: true},
		{Key: "golf_masters_tournament_winner", Active: true},
	}

	tests := []struct {
		name   string
		wanted []string
		want   []string
	}{
		{
			name:   "all-drops-outrights",
			wanted: []string{"all"},
			want:   []string{"basketball_nba", "americanfootball_nfl"},
		},
		{
			name:   "all-case-insensitive",
			wanted: []string{"ALL"},
			want:   []string{"basketball_nba", "americanfootball_nfl"},
		},
		{
			name:   "empty-means-all",
			wanted: nil,
			want:   []string{"basketball_nba", "americanfootball_nfl"},
		},
		{
			name:   "explicit-list-keeps-known",
			wanted: []string{"americanfootball_nfl", "soccer_epl", "basketball_nba"},
			want:   []string{"americanfootball_nfl", "basketball_nba"},
		},
		{
			name:   "explicit-outright-allowed",
			wanted: []string{"golf_masters_tournament_winner"},
			want:   []string{"golf_masters_tournament_winner"},
		},
		{
			name:   "nothing-known",
			wanted: []string{"cricket_ipl"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterSports(available, tt.wanted))
		})
	}
}
