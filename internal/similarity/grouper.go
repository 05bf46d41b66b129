package similarity

import (
	"sort"

	"github.com/pders01/pyfinder/internal/models"
)

// Candidate is a pair of projects scoring at or above the threshold
type Candidate struct {
	A     *models.Project
	B     *models.Project
	Score float64
}

// Grouper clusters projects whose pairwise score reaches Threshold
type Grouper struct {
	Threshold float64
	Score     func(a, b *models.Project) float64
}

// NewGrouper creates a grouper using Score
func NewGrouper(threshold float64) *Grouper {
	return &Grouper{Threshold: threshold, Score: Score}
}

// Candidates scores every unordered pair. It returns the pairs at or above
// the threshold, best first (ties keep enumeration order), and all scores.
func (g *Grouper) Candidates(projects []*models.Project) ([]Candidate, map[models.PairKey]float64) {
	scores := make(map[models.PairKey]float64)
	var candidates []Candidate

	for i := 0; i < len(projects); i++ {
		for j := i + 1; j < len(projects); j++ {
			a, b := projects[i], projects[j]
			if a.Equal(b) {
				continue
			}
			score := g.Score(a, b)
			scores[models.NewPairKey(a.Path(), b.Path())] = score
			if score >= g.Threshold {
				candidates = append(candidates, Candidate{A: a, B: b, Score: score})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, scores
}

// Group clusters projects greedily: candidate pairs are taken best first and a
// pair joins the group one of its members already belongs to, otherwise it
// starts a new group. Members can therefore be linked only through others.
// Groups are returned largest first and always have at least two members.
func (g *Grouper) Group(projects []*models.Project) []*models.Group {
	candidates, scores := g.Candidates(projects)

	var groups []*models.Group
	placed := make(map[string]*models.Group)

	for _, c := range candidates {
		groupA, okA := placed[c.A.Path()]
		groupB, okB := placed[c.B.Path()]
		if okA && okB {
			continue
		}

		var group *models.Group
		switch {
		case okA:
			group = groupA
		case okB:
			group = groupB
		default:
			group = &models.Group{Scores: make(map[models.PairKey]float64)}
			groups = append(groups, group)
		}

		for _, p := range []*models.Project{c.A, c.B} {
			if _, ok := placed[p.Path()]; !ok {
				group.Projects = append(group.Projects, p)
				placed[p.Path()] = group
			}
		}
	}

	for _, group := range groups {
		for i := 0; i < len(group.Projects); i++ {
			for j := i + 1; j < len(group.Projects); j++ {
				key := models.NewPairKey(group.Projects[i].Path(), group.Projects[j].Path())
				if score, ok := scores[key]; ok {
					group.Scores[key] = score
				}
			}
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Size() > groups[j].Size()
	})
	return groups
}

// IdenticalByHash returns the projects sharing a folder hash, in buckets of
// two or more, largest first and then by the path of the first member.
// Projects without a hash are ignored.
func IdenticalByHash(projects []*models.Project) [][]*models.Project {
	var order []string
	buckets := make(map[string][]*models.Project)
	for _, p := range projects {
		if !p.HasHash() {
			continue
		}
		if _, ok := buckets[p.FolderHash]; !ok {
			order = append(order, p.FolderHash)
		}
		buckets[p.FolderHash] = append(buckets[p.FolderHash], p)
	}

	var identical [][]*models.Project
	for _, hash := range order {
		if len(buckets[hash]) > 1 {
			identical = append(identical, buckets[hash])
		}
	}
	sort.SliceStable(identical, func(i, j int) bool {
		if len(identical[i]) != len(identical[j]) {
			return len(identical[i]) > len(identical[j])
		}
		return identical[i][0].Path() < identical[j][0].Path()
	})
	return identical
}
