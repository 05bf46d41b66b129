package models

// PairKey identifies an unordered pair of projects by path
type PairKey struct {
	A string
	B string
}

// NewPairKey orders the two paths so (a, b) and (b, a) give the same key
func NewPairKey(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// Group is a cluster of at least two projects judged to be duplicates,
// with the similarity of every member pair.
type Group struct {
	Projects []*Project
	Scores   map[PairKey]float64
}

// Size returns the number of members
func (g *Group) Size() int {
	return len(g.Projects)
}

// Contains reports whether a project with the same path is a member
func (g *Group) Contains(p *Project) bool {
	for _, member := range g.Projects {
		if member.Equal(p) {
			return true
		}
	}
	return false
}

// Score returns the recorded similarity of two members
func (g *Group) Score(a, b *Project) (float64, bool) {
	score, ok := g.Scores[NewPairKey(a.Path(), b.Path())]
	return score, ok
}
