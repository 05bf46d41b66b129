package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", "json", &buf)
	require.NoError(t, err)

	logger.Info("scan finished", logger.Args("projects", 3))
	logger.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "scan finished")
	assert.Contains(t, out, "projects")
	assert.NotContains(t, out, "hidden")
}

func TestNewRejectsUnknown(t *testing.T) {
	_, err := New("loud", "json", &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))

	var buf bytes.Buffer
	logger, err := New("warn", "colorful", &buf)
	require.NoError(t, err)
	assert.Same(t, logger, OrDiscard(logger))
}
