package provider

import (
	"strings"

	"github.com/christopherhenripage/odds-trader/pkg/types"
)

// AllSports selects every active sport.
const AllSports = "all"

// FilterSports picks the sport keys to scan.
// With "all" (or no selection) every key is returned except outright
// markets, which carry "_winner" in their key. Otherwise the wanted keys
// that the provider currently lists are returned, in wanted order.
func FilterSports(available []types.Sport, wanted []string) []string {
	if len(wanted) == 0 || (len(wanted) == 1 && strings.EqualFold(wanted[0], AllSports)) {
		keys := make([]string, 0, len(available))
		for _, s := range available {
			if strings.Contains(s.Key, "_winner") {
				continue
			}
			keys = append(keys, s.Key)
		}
		return keys
	}

	known := make(map[string]struct{}, len(available))
	for _, s := range available {
		known[s.Key] = struct{}{}
	}

	keys := make([]string, 0, len(wanted))
	for _, w := range wanted {
		if _, ok := known[w]; ok {
			keys = append(keys, w)
		}
	}
	return keys
}
