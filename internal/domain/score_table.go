package domain

import "sort"

// ScoreTable maps cluster rank (1 = best) to a credit score.
type ScoreTable map[int]int

// DefaultScoreTable is the five-band lookup used with five clusters.
var DefaultScoreTable = ScoreTable{
	1: 1000,
	2: 750,
	3: 500,
	4: 250,
	5: 100,
}

// NewScoreTable builds a table from scores ordered best rank first.
func NewScoreTable(scores []int) ScoreTable {
	t := make(ScoreTable, len(scores))
	for i, s := range scores {
		t[i+1] = s
	}
	return t
}

// Scores returns the distinct score values, highest first.
func (t ScoreTable) Scores() []int {
	seen := make(map[int]struct{}, len(t))
	out := make([]int, 0, len(t))
	for _, s := range t {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
