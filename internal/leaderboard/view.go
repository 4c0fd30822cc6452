package leaderboard

import (
	"time"

	"github.com/albapepper/scoracle-leaderboard/internal/ranking"
)

// Tier is the standing shown next to a team.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierCompeting Tier = "competing"
	TierPending   Tier = "pending"
)

// TierFor classifies a best submission score.
func TierFor(score float64) Tier {
	switch {
	case score >= 80:
		return TierExcellent
	case score >= 70:
		return TierGood
	case score > 0:
		return TierCompeting
	default:
		return TierPending
	}
}

// Entry is the serialized form of one ranked team. Scores that are not
// positive render as null.
type Entry struct {
	Rank               int        `json:"rank" yaml:"rank"`
	Name               string     `json:"name" yaml:"name"`
	Submissions        []*float64 `json:"submissions" yaml:"submissions"`
	Phase1             *float64   `json:"phase1,omitempty" yaml:"phase1,omitempty"`
	Phase2             *float64   `json:"phase2,omitempty" yaml:"phase2,omitempty"`
	Final              *float64   `json:"final,omitempty" yaml:"final,omitempty"`
	MaxSubmissionScore *float64   `json:"max_submission_score" yaml:"max_submission_score"`
	RankScore          float64    `json:"rank_score" yaml:"rank_score"`
	Tier               Tier       `json:"tier" yaml:"tier"`
}

// Document is the serialized form of a Snapshot.
type Document struct {
	ID       string             `json:"id" yaml:"id"`
	Source   string             `json:"source" yaml:"source"`
	Fallback bool               `json:"fallback" yaml:"fallback"`
	LoadedAt string             `json:"loaded_at" yaml:"loaded_at"`
	Stats    ranking.Statistics `json:"stats" yaml:"stats"`
	Teams    []Entry            `json:"teams" yaml:"teams"`
}

// NewEntry renders a team at a 1-based rank.
func NewEntry(rank int, t ranking.TeamScore) Entry {
	subs := make([]*float64, len(t.Submissions))
	for i, s := range t.Submissions {
		subs[i] = positive(s)
	}
	return Entry{
		Rank:               rank,
		Name:               t.Name,
		Submissions:        subs,
		Phase1:             positivePtr(t.Phase1),
		Phase2:             positivePtr(t.Phase2),
		Final:              positivePtr(t.Final),
		MaxSubmissionScore: positive(t.MaxSubmissionScore),
		RankScore:          t.RankScore,
		Tier:               TierFor(t.MaxSubmissionScore),
	}
}

// Document renders the snapshot. limit > 0 truncates the team list; stats
// always cover every team.
func (s *Snapshot) Document(limit int) Document {
	teams := s.Teams
	if limit > 0 && limit < len(teams) {
		teams = teams[:limit]
	}
	entries := make([]Entry, len(teams))
	for i, t := range teams {
		entries[i] = NewEntry(i+1, t)
	}
	return Document{
		ID:       s.ID.String(),
		Source:   s.Source,
		Fallback: s.Fallback,
		LoadedAt: s.LoadedAt.Format(time.RFC3339),
		Stats:    s.Stats,
		Teams:    entries,
	}
}

func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	r := ranking.Round1(v)
	return &r
}

func positivePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return positive(*v)
}
