package ranking

// Column names read from the source header. Phase columns accept two
// spellings; the first one present in the header is used.
var (
	SubmissionColumns = [3]string{"#sub1", "#sub2", "#sub3"}

	phase1Columns = []string{"Phase 1", "Phase1"}
	phase2Columns = []string{"Phase 2", "Phase2"}
	finalColumns  = []string{"Final", "Final "}
)

// TeamScore is the ranking-ready form of one source row.
type TeamScore struct {
	Name string

	// Submissions holds up to three raw submission scores. 0 means the team
	// has no score for that slot.
	Submissions [3]float64

	// Phase scores are nil when the source has no column for them.
	Phase1 *float64
	Phase2 *float64
	Final  *float64

	MaxSubmissionScore float64
	RankScore          float64
}

// newTeamScore builds a TeamScore from a record whose identifier is non-empty.
func newTeamScore(rec RawRecord) TeamScore {
	t := TeamScore{Name: rec.Identifier()}

	for i, col := range SubmissionColumns {
		v, _ := rec.Get(col)
		t.Submissions[i] = ToNumber(v)
	}
	t.MaxSubmissionScore = maxSubmission(t.Submissions)

	t.Phase1 = phaseScore(rec, phase1Columns)
	t.Phase2 = phaseScore(rec, phase2Columns)
	t.Final = phaseScore(rec, finalColumns)

	t.RankScore = Round1(t.rankScore())
	return t
}

// rankScore applies phase precedence: the latest phase with a positive score
// wins, otherwise the best submission counts. A phase score of exactly 0 is
// indistinguishable from "not entered yet" and never overrides.
func (t TeamScore) rankScore() float64 {
	for _, p := range []*float64{t.Final, t.Phase2, t.Phase1} {
		if p != nil && *p > 0 {
			return *p
		}
	}
	return t.MaxSubmissionScore
}

// SubmissionCount reports how many submission slots hold a positive score.
func (t TeamScore) SubmissionCount() int {
	n := 0
	for _, s := range t.Submissions {
		if s > 0 {
			n++
		}
	}
	return n
}

func maxSubmission(subs [3]float64) float64 {
	best := 0.0
	for _, s := range subs {
		if s > best {
			best = s
		}
	}
	return Round1(best)
}

func phaseScore(rec RawRecord, names []string) *float64 {
	raw, ok := rec.Lookup(names...)
	if !ok {
		return nil
	}
	v := ToNumber(raw)
	return &v
}
