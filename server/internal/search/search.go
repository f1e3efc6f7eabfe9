// Package search implements the dashboard's quick search box: a fuzzy match
// of the query against each alert's code, team and summary.
package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ciops/alertdesk/pkg/types"
)

// Match returns the rank of a match between q and val. 0 means best match.
// -1 means no match.
func Match(q, val string) int {
	return fuzzy.RankMatchFold(q, val)
}

// Alerts ranks alerts against q, best first. Ties keep input order. At most
// limit results are returned; limit <= 0 means no limit. An empty query
// returns nothing.
func Alerts(alerts []types.Alert, q string, limit int) []types.SearchResult {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}

	out := []types.SearchResult{}
	for _, a := range alerts {
		best := -1
		for _, field := range []string{a.Code, a.Team, a.Summary} {
			r := Match(q, field)
			if r >= 0 && (best < 0 || r < best) {
				best = r
			}
		}
		if best >= 0 {
			out = append(out, types.SearchResult{Alert: a, Rank: best})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rank < out[j].Rank
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
