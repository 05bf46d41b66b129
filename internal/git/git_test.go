package git

import (
	"testing"

	"github.com/pders01/pyfinder/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if !Available() {
		t.Skip("git not installed")
	}
}

func TestInfo(t *testing.T) {
	requireGit(t)
	tree := testutil.NewTempTree(t)
	tree.CreateFile("proj/main.py", "print('hi')\n")
	tree.InitGit("proj")

	info, err := Info(tree.Join("proj"))
	require.NoError(t, err)

	assert.Equal(t, tree.Join("proj"), info.TopLevel)
	assert.NotEmpty(t, info.Branch)
	assert.NotEmpty(t, info.Commit)
	require.NotNil(t, info.CommitTime)
	assert.False(t, info.Dirty)
	assert.Empty(t, info.Remote)

	tree.CreateFile("proj/new.py", "x = 1\n")
	dirty, err := HasUncommittedChanges(tree.Join("proj"))
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestInfoSubdirectory(t *testing.T) {
	requireGit(t)
	tree := testutil.NewTempTree(t)
	tree.CreateFile("mono/services/api/app.py", "")
	tree.InitGit("mono")

	assert.True(t, IsRepo(tree.Join("mono/services/api")))
	top, err := TopLevel(tree.Join("mono/services/api"))
	require.NoError(t, err)
	assert.Equal(t, tree.Join("mono"), top)
}

func TestInfoNotRepository(t *testing.T) {
	requireGit(t)
	tree := testutil.NewTempTree(t)
	dir := tree.CreateDir("plain")

	assert.False(t, IsRepo(dir))
	_, err := Info(dir)
	assert.Error(t, err)
}
