package models

import (
	"path/filepath"
	"sort"
	"strings"
)

// Feature tags derived from the files of a project
const (
	FeatureReadme       = "readme"
	FeatureLicense      = "license"
	FeatureRequirements = "requirements"
	FeatureSetuptools   = "setuptools"
	FeaturePyproject    = "pyproject"
	FeaturePipenv       = "pipenv"
	FeaturePoetry       = "poetry"
	FeatureDocker       = "docker"
	FeatureDjango       = "django"
	FeatureTox          = "tox"
	FeatureGitignore    = "gitignore"
	FeatureEnv          = "env"
	FeatureTests        = "tests"
	FeatureGit          = "git"
)

var markerFeatures = map[string]string{
	"readme.md":          FeatureReadme,
	"readme.txt":         FeatureReadme,
	"readme.rst":         FeatureReadme,
	"license":            FeatureLicense,
	"requirements.txt":   FeatureRequirements,
	"setup.py":           FeatureSetuptools,
	"setup.cfg":          FeatureSetuptools,
	"manifest.in":        FeatureSetuptools,
	"pyproject.toml":     FeaturePyproject,
	"pipfile":            FeaturePipenv,
	"poetry.lock":        FeaturePoetry,
	"dockerfile":         FeatureDocker,
	"docker-compose.yml": FeatureDocker,
	"manage.py":          FeatureDjango,
	"tox.ini":            FeatureTox,
	".gitignore":         FeatureGitignore,
	".env":               FeatureEnv,
}

// AddFeature sets a feature tag
func (p *Project) AddFeature(feature string) {
	if p.features == nil {
		p.features = make(map[string]struct{})
	}
	p.features[feature] = struct{}{}
}

// HasFeature reports whether a feature tag is set
func (p *Project) HasFeature(feature string) bool {
	_, ok := p.features[feature]
	return ok
}

// Features returns the tags in sorted order
func (p *Project) Features() []string {
	features := make([]string, 0, len(p.features))
	for f := range p.features {
		features = append(features, f)
	}
	sort.Strings(features)
	return features
}

// TagFeatures derives feature tags from the marker and source file lists
func (p *Project) TagFeatures() {
	for _, marker := range p.MarkerFiles {
		if feature, ok := markerFeatures[strings.ToLower(filepath.Base(marker))]; ok {
			p.AddFeature(feature)
		}
	}

	for _, src := range p.SourceFiles {
		if isTestFile(p.path, src) {
			p.AddFeature(FeatureTests)
			break
		}
	}
}

func isTestFile(root, path string) bool {
	if strings.HasPrefix(filepath.Base(path), "test_") {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if part == "tests" || part == "test" {
			return true
		}
	}
	return false
}
