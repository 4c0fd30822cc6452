// Package ranking turns loosely formatted leaderboard CSV into a
// deterministic ranking.
//
// Parsing never fails: short rows are padded, non-numeric scores read as 0
// and rows without a team name are skipped. The package holds no state, so
// parsing the same text twice yields equal results.
package ranking

import (
	"cmp"
	"slices"
)

// RankedList is ordered by RankScore descending. Equal scores keep the order
// in which the teams appeared in the source.
type RankedList []TeamScore

// Statistics summarizes a RankedList. Max and mean are taken over
// MaxSubmissionScore, not RankScore.
type Statistics struct {
	TeamCount int     `json:"team_count" yaml:"team_count"`
	MaxScore  float64 `json:"max_score" yaml:"max_score"`
	MeanScore float64 `json:"mean_score" yaml:"mean_score"`
}

// Parse reads raw CSV text into records. The first non-blank line is the
// header; records with an empty identifier are dropped.
func Parse(text string) []RawRecord {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil
	}

	columns := splitHeader(lines[0])
	records := make([]RawRecord, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rec := newRawRecord(columns, splitFields(line))
		if rec.Identifier() == "" {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// Rank parses text and returns the teams in ranking order.
func Rank(text string) RankedList {
	records := Parse(text)
	teams := make(RankedList, 0, len(records))
	for _, rec := range records {
		teams = append(teams, newTeamScore(rec))
	}
	slices.SortStableFunc(teams, func(a, b TeamScore) int {
		return cmp.Compare(b.RankScore, a.RankScore)
	})
	return teams
}

// Stats derives the summary statistics. An empty list yields all zeros.
func (l RankedList) Stats() Statistics {
	if len(l) == 0 {
		return Statistics{}
	}
	var sum, best float64
	for i, t := range l {
		sum += t.MaxSubmissionScore
		if i == 0 || t.MaxSubmissionScore > best {
			best = t.MaxSubmissionScore
		}
	}
	return Statistics{
		TeamCount: len(l),
		MaxScore:  best,
		MeanScore: Round1(sum / float64(len(l))),
	}
}

// Find returns the team with the given name and its 1-based rank.
func (l RankedList) Find(name string) (TeamScore, int, bool) {
	for i, t := range l {
		if t.Name == name {
			return t, i + 1, true
		}
	}
	return TeamScore{}, 0, false
}
