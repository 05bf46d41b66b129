package similarity

import (
	"fmt"
	"testing"
	"time"

	"github.com/pders01/pyfinder/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func project(path string, files ...string) *models.Project {
	p := models.NewProject(path)
	for _, f := range files {
		p.SourceFiles = append(p.SourceFiles, path+"/"+f)
	}
	return p
}

func withRealSize(p *models.Project, size int64) *models.Project {
	p.SetRealSize(size, 1)
	return p
}

func TestCompareEmptySourceList(t *testing.T) {
	empty := project("/a/app")
	full := project("/b/app", "main.py")
	empty.FolderHash = "same"
	full.FolderHash = "same"

	assert.Equal(t, 0.0, Score(empty, full))
	assert.Equal(t, 0.0, Score(full, empty))
	assert.Equal(t, 0.0, Score(empty, empty))
}

func TestCompareHashShortCircuit(t *testing.T) {
	a := withRealSize(project("/x/alpha", "one.py", "two.py"), 10)
	b := withRealSize(project("/y/zeta", "other.py"), 99999)
	a.FolderHash = "abc123"
	b.FolderHash = "abc123"

	result := Compare(a, b)
	assert.True(t, result.HashMatch)
	assert.Equal(t, 1.0, result.Score)
}

func TestCompareComponents(t *testing.T) {
	tests := []struct {
		name      string
		a, b      *models.Project
		wantFiles float64
		wantName  float64
		wantSize  *float64
		wantScore float64
	}{
		{
			name:      "identical without size",
			a:         project("/1/app", "main.py", "util.py"),
			b:         project("/2/app", "util.py", "main.py"),
			wantFiles: 1,
			wantName:  1,
			wantScore: 1,
		},
		{
			name:      "partial name",
			a:         project("/1/abcd", "main.py"),
			b:         project("/2/bcde", "main.py"),
			wantFiles: 1,
			wantName:  0.75,
			wantScore: 0.7 + 0.3*0.75,
		},
		{
			name:      "half the files",
			a:         project("/1/app", "a.py", "b.py"),
			b:         project("/2/app", "a.py", "c.py"),
			wantFiles: 0.5,
			wantName:  1,
			wantScore: 0.7*0.5 + 0.3,
		},
		{
			name:      "with size",
			a:         withRealSize(project("/1/app", "main.py"), 100),
			b:         withRealSize(project("/2/app", "main.py"), 200),
			wantFiles: 1,
			wantName:  1,
			wantSize:  ptr(0.5),
			wantScore: 0.6 + 0.2 + 0.2*0.5,
		},
		{
			name:      "zero size drops the size term",
			a:         withRealSize(project("/1/app", "main.py"), 0),
			b:         withRealSize(project("/2/app", "main.py"), 200),
			wantFiles: 1,
			wantName:  1,
			wantScore: 1,
		},
		{
			name:      "only one size known",
			a:         withRealSize(project("/1/app", "main.py"), 100),
			b:         project("/2/app", "main.py"),
			wantFiles: 1,
			wantName:  1,
			wantScore: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.a, tt.b)
			assert.InDelta(t, tt.wantFiles, got.Files, 1e-9)
			assert.InDelta(t, tt.wantName, got.Name, 1e-9)
			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
			if tt.wantSize == nil {
				assert.Nil(t, got.Size)
			} else {
				require.NotNil(t, got.Size)
				assert.InDelta(t, *tt.wantSize, *got.Size, 1e-9)
			}
			assert.False(t, got.HashMatch)
		})
	}
}

func TestScoreSymmetricAndBounded(t *testing.T) {
	projects := []*models.Project{
		project("/p/api", "app.py", "models.py", "views.py"),
		project("/p/api-copy", "app.py", "models.py", "views.py", "extra.py"),
		withRealSize(project("/p/scraper", "main.py", "parse.py"), 4096),
		withRealSize(project("/p/scraper2", "parse.py", "main.py", "cli.py"), 1024),
		project("/p/empty"),
		project("/p/abab", "a.py", "b.py", "a.py", "b.py"),
		project("/p/baba", "b.py", "a.py", "b.py", "a.py", "c.py"),
		project("/p/ünïcode", "ä.py"),
	}

	for _, a := range projects {
		for _, b := range projects {
			t.Run(fmt.Sprintf("%s-%s", a.Name, b.Name), func(t *testing.T) {
				ab := Score(a, b)
				ba := Score(b, a)
				assert.Equal(t, ab, ba)
				assert.GreaterOrEqual(t, ab, 0.0)
				assert.LessOrEqual(t, ab, 1.0)
				if a.FileCount() == 0 || b.FileCount() == 0 {
					assert.Equal(t, 0.0, ab)
				}
			})
		}
	}
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 1.0, Ratio(nil, nil))
	assert.Equal(t, 0.0, Ratio([]string{"a"}, []string{"b"}))
	assert.InDelta(t, 0.75, Ratio(characters("abcd"), characters("bcde")), 1e-9)
}

func TestRank(t *testing.T) {
	target := project("/p/app", "main.py", "db.py")
	near := project("/q/app", "main.py", "db.py")
	far := project("/r/tool", "cli.py")

	matches := Rank(target, []*models.Project{far, target, near})

	require.Len(t, matches, 2)
	assert.Equal(t, "/q/app", matches[0].Path)
	assert.Equal(t, "/r/tool", matches[1].Path)
	assert.Greater(t, matches[0].Breakdown.Score, matches[1].Breakdown.Score)
}

func TestShared(t *testing.T) {
	day := time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)
	other := day.AddDate(0, 1, 0)

	a := withRealSize(project("/a", "x.py"), 100)
	b := withRealSize(project("/b", "x.py"), 100)
	c := withRealSize(project("/c", "x.py"), 300)
	a.FolderHash, b.FolderHash, c.FolderHash = "h1", "h2", "h2"
	a.LastModified, b.LastModified = &day, &other
	c.SetLastFileModified(day.Add(time.Hour))

	shared := Shared([]*models.Project{a, b, c})

	assert.Equal(t, map[string]int{"h2": 0}, shared.Hashes)
	assert.Equal(t, map[int64]int{100: 0}, shared.Sizes)
	assert.Equal(t, map[int]int{1: 0}, shared.Counts)
	assert.Equal(t, map[string]int{"2024-02-03": 0}, shared.Dates)
}

func ptr(f float64) *float64 {
	return &f
}
