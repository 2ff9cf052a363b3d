package arbitrage

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/christopherhenripage/odds-trader/pkg/types"
)

// FingerprintLength is the number of hex characters kept from the SHA-256 digest.
const FingerprintLength = 32

// Fingerprint returns a stable identity for an opportunity.
// Legs are sorted by (outcome, bookmaker) first, so leg order does not matter.
func Fingerprint(eventID string, marketKey types.MarketKey, oppType Type, legs []Leg) string {
	return fingerprint(eventID, marketKey, oppType, legs, true)
}

// StableFingerprint is Fingerprint without odds: the same bet combination
// keeps its identity while prices move.
func StableFingerprint(eventID string, marketKey types.MarketKey, oppType Type, legs []Leg) string {
	return fingerprint(eventID, marketKey, oppType, legs, false)
}

func fingerprint(eventID string, marketKey types.MarketKey, oppType Type, legs []Leg, withOdds bool) string {
	sorted := make([]Leg, len(legs))
	copy(sorted, legs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Outcome != sorted[j].Outcome {
			return sorted[i].Outcome < sorted[j].Outcome
		}
		return sorted[i].Bookmaker < sorted[j].Bookmaker
	})

	var b strings.Builder
	b.WriteString(eventID)
	b.WriteByte('|')
	b.WriteString(string(marketKey))
	b.WriteByte('|')
	b.WriteString(string(oppType))

	for _, leg := range sorted {
		b.WriteByte('|')
		b.WriteString(leg.Outcome)
		b.WriteByte('|')
		b.WriteString(leg.Bookmaker)
		if withOdds {
			b.WriteByte('|')
			b.WriteString(strconv.FormatFloat(leg.Odds, 'f', 2, 64))
		}
		b.WriteByte('|')
		if leg.Point != nil {
			b.WriteString(strconv.FormatFloat(*leg.Point, 'f', 2, 64))
		} else {
			b.WriteString("null")
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}
