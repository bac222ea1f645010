package transcript

import "math"

// Selector picks a semester label, or AllSemesters.
type Selector string

// AllSemesters disables filtering. It is also the first entry of every
// semester list.
const AllSemesters Selector = "all"

// IsAll reports whether s selects every semester. An empty selector counts.
func (s Selector) IsAll() bool { return s == AllSemesters || s == "" }

// Summary is the derived view of a student's records under a selector.
type Summary struct {
	Records       []AcademicRecord `json:"records"`
	Semesters     []string         `json:"semesters"`
	Selected      Selector         `json:"selected"`
	Average       float64          `json:"average"`
	ApprovedCount int              `json:"approved_count"`
	FailedCount   int              `json:"failed_count"`
	ApprovalRate  int              `json:"approval_rate"`
}

// Total returns the number of records in the summary.
func (s Summary) Total() int { return s.ApprovedCount + s.FailedCount }

// Semesters returns "all" followed by the distinct semester labels in
// first-seen order.
func Semesters(records []AcademicRecord) []string {
	out := []string{string(AllSemesters)}
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, ok := seen[r.Semester]; ok {
			continue
		}
		seen[r.Semester] = struct{}{}
		out = append(out, r.Semester)
	}
	return out
}

// Filter keeps records whose semester equals selector. Unknown labels yield
// an empty, non-nil slice.
func Filter(records []AcademicRecord, selector Selector) []AcademicRecord {
	out := make([]AcademicRecord, 0, len(records))
	for _, r := range records {
		if selector.IsAll() || r.Semester == string(selector) {
			out = append(out, r)
		}
	}
	return out
}

// Average is the arithmetic mean rounded half away from zero to two
// decimals. An empty input averages to 0.
func Average(records []AcademicRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	// Sum in millionths so a decimal tie like 1.005 rounds up.
	var sum int64
	for _, r := range records {
		sum += int64(math.Round(r.Grade * micro))
	}
	return float64(roundDiv(sum, int64(len(records))*micro/100)) / 100
}

const micro = 1_000_000

// roundDiv is n/d rounded half away from zero, for d > 0.
func roundDiv(n, d int64) int64 {
	q, r := n/d, n%d
	if r < 0 {
		r = -r
	}
	if 2*r >= d {
		if n < 0 {
			q--
		} else {
			q++
		}
	}
	return q
}

// Summarize filters records by selector and computes the statistics over the
// filtered subset. Semesters always lists every semester.
func Summarize(records []AcademicRecord, selector Selector) Summary {
	if selector == "" {
		selector = AllSemesters
	}
	filtered := Filter(records, selector)

	s := Summary{
		Records:   filtered,
		Semesters: Semesters(records),
		Selected:  selector,
		Average:   Average(filtered),
	}
	for _, r := range filtered {
		if r.Status.IsApproved() {
			s.ApprovedCount++
		} else {
			s.FailedCount++
		}
	}
	if len(filtered) > 0 {
		s.ApprovalRate = int(roundDiv(int64(s.ApprovedCount)*100, int64(len(filtered))))
	}
	return s
}

// Aggregate normalizes raw entries and summarizes them.
func Aggregate(raw []GradeEntry, policy GradingPolicy, selector Selector) (Summary, error) {
	records, err := Normalize(raw, policy)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(records, selector), nil
}
