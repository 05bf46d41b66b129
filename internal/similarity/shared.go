package similarity

import (
	"github.com/pders01/pyfinder/internal/models"
)

// DateLayout is the granularity at which modification dates are compared
const DateLayout = "2006-01-02"

// SharedValues lists the values held by at least two projects of a set.
// Each shared value maps to its index in order of first appearance, which
// renderers use to pick a colour.
type SharedValues struct {
	Hashes map[string]int
	Sizes  map[int64]int
	Counts map[int]int
	Dates  map[string]int
}

// Shared finds the hash, real size, real file count and modification date
// values that occur more than once among projects.
func Shared(projects []*models.Project) SharedValues {
	hashes := make(map[string]int)
	sizes := make(map[int64]int)
	counts := make(map[int]int)
	dates := make(map[string]int)

	for _, p := range projects {
		if p.HasHash() {
			hashes[p.FolderHash]++
		}
		if p.RealSize != nil {
			sizes[*p.RealSize]++
		}
		if p.RealFileCount != nil {
			counts[*p.RealFileCount]++
		}
		if date, ok := ModifiedDate(p); ok {
			dates[date]++
		}
	}

	shared := SharedValues{
		Hashes: make(map[string]int),
		Sizes:  make(map[int64]int),
		Counts: make(map[int]int),
		Dates:  make(map[string]int),
	}
	for _, p := range projects {
		if p.HasHash() {
			index(shared.Hashes, hashes, p.FolderHash)
		}
		if p.RealSize != nil {
			index(shared.Sizes, sizes, *p.RealSize)
		}
		if p.RealFileCount != nil {
			index(shared.Counts, counts, *p.RealFileCount)
		}
		if date, ok := ModifiedDate(p); ok {
			index(shared.Dates, dates, date)
		}
	}
	return shared
}

// ModifiedDate returns the newest file date of a project, preferring the
// whole-tree value over the one from the scan
func ModifiedDate(p *models.Project) (string, bool) {
	if t, ok := p.LastFileModified(); ok && !t.IsZero() {
		return t.Format(DateLayout), true
	}
	if p.LastModified != nil {
		return p.LastModified.Format(DateLayout), true
	}
	return "", false
}

func index[K comparable](shared map[K]int, counts map[K]int, value K) {
	if counts[value] < 2 {
		return
	}
	if _, ok := shared[value]; !ok {
		shared[value] = len(shared)
	}
}
