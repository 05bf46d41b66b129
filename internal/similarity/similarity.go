package similarity

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/pders01/pyfinder/internal/models"
	"github.com/pmezard/go-difflib/difflib"
)

// DefaultThreshold is the score from which two projects count as duplicates
const DefaultThreshold = 0.7

// Component weights with and without the size term
const (
	FileWeight = 0.6
	NameWeight = 0.2
	SizeWeight = 0.2

	FileWeightNoSize = 0.7
	NameWeightNoSize = 0.3
)

// Breakdown holds the component scores of one comparison
type Breakdown struct {
	Files     float64  `json:"files" yaml:"files"`
	Name      float64  `json:"name" yaml:"name"`
	Size      *float64 `json:"size,omitempty" yaml:"size,omitempty"`
	HashMatch bool     `json:"hash_match" yaml:"hash_match"`
	Score     float64  `json:"score" yaml:"score"`
}

// Score returns the similarity of two projects in [0, 1]
func Score(a, b *models.Project) float64 {
	return Compare(a, b).Score
}

// Compare scores two projects and keeps the component scores.
//
// A project without source files scores 0 against everything. Equal folder
// hashes score 1. Otherwise the score is a weighted sum of the sequence ratio
// of the sorted source basenames, the ratio of the names and, when both real
// sizes are known and positive, min/max of the real sizes.
func Compare(a, b *models.Project) Breakdown {
	if a.FileCount() == 0 || b.FileCount() == 0 {
		return Breakdown{}
	}
	if a.HasHash() && b.HasHash() && a.FolderHash == b.FolderHash {
		return Breakdown{HashMatch: true, Score: 1}
	}

	// the ratio is order sensitive; fix the order so Compare is symmetric
	if b.Path() < a.Path() {
		a, b = b, a
	}

	result := Breakdown{
		Files: Ratio(basenames(a.SourceFiles), basenames(b.SourceFiles)),
		Name:  Ratio(characters(a.Name), characters(b.Name)),
	}

	if a.HasRealSize() && b.HasRealSize() {
		small, large := *a.RealSize, *b.RealSize
		if small > large {
			small, large = large, small
		}
		size := float64(small) / float64(large)
		result.Size = &size
		result.Score = FileWeight*result.Files + NameWeight*result.Name + SizeWeight*size
	} else {
		result.Score = FileWeightNoSize*result.Files + NameWeightNoSize*result.Name
	}

	// Clamp to [0, 1] to handle floating point errors
	if result.Score > 1.0 {
		result.Score = 1.0
	} else if result.Score < 0 {
		result.Score = 0
	}
	return result
}

// Ratio is the matching-blocks ratio 2*M/T of two sequences
func Ratio(a, b []string) float64 {
	return difflib.NewMatcher(a, b).Ratio()
}

func basenames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	sort.Strings(names)
	return names
}

func characters(s string) []string {
	return strings.Split(s, "")
}

// Match is a project scored against a reference project
type Match struct {
	Project   *models.Project `json:"-" yaml:"-"`
	Path      string          `json:"path" yaml:"path"`
	Breakdown Breakdown       `json:"breakdown" yaml:"breakdown"`
}

// Rank scores every other project against target, best first
func Rank(target *models.Project, projects []*models.Project) []Match {
	var matches []Match
	for _, p := range projects {
		if p.Equal(target) {
			continue
		}
		matches = append(matches, Match{Project: p, Path: p.Path(), Breakdown: Compare(target, p)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Breakdown.Score > matches[j].Breakdown.Score
	})
	return matches
}
