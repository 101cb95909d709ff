package queries_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persistorai/ldpath/internal/models"
	"github.com/persistorai/ldpath/internal/queries"
	"github.com/persistorai/ldpath/internal/rdf"
)

func TestDefaultCatalogueBuilds(t *testing.T) {
	c, err := queries.Default()
	require.NoError(t, err)

	wantIDs := []int{0, 1, 10, 11, 12, 13, 14, 15, 20, 21, 22, 23, 24, 25, 26, 30, 31, 32}

	var ids []int
	for _, d := range c.List() {
		ids = append(ids, d.ID)

		a, err := d.Build(1)
		require.NoError(t, err, d.Name)
		assert.True(t, a.Built(), d.Name)
	}

	assert.Equal(t, wantIDs, ids)
}

func TestLookup(t *testing.T) {
	c, err := queries.Default()
	require.NoError(t, err)

	for _, key := range []string{"13", "q13", "Q13", "direct_coauthors", " Direct_Coauthors "} {
		d, err := c.Lookup(key)
		require.NoError(t, err, key)
		assert.Equal(t, 13, d.ID, key)
	}

	_, err = c.Lookup("99")
	require.ErrorIs(t, err, models.ErrQueryNotFound)

	_, err = c.Lookup("nope")
	require.ErrorIs(t, err, models.ErrQueryNotFound)
}

func TestCoauthorsExcludeStart(t *testing.T) {
	c, err := queries.Default()
	require.NoError(t, err)

	d, err := c.Lookup("13")
	require.NoError(t, err)

	start := rdf.IRI("http://ex.org/me")

	a, err := d.BuildFrom(start, 1)
	require.NoError(t, err)

	co, ok := a.StateByName("CoAuth")
	require.True(t, ok)
	assert.False(t, co.Allows(start))
	assert.True(t, co.Allows(rdf.IRI("http://ex.org/you")))
	assert.Equal(t, start, a.StartNode)
}

func TestLoadDirOverrides(t *testing.T) {
	dir := t.TempDir()

	override := `id: 0
name: Labels
start: <http://ex.org/x>
states:
  L:
    accept: {any: true}
transitions:
  - {from: s0, through: [rdfs:label], to: L}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "labels.yaml"), []byte(override), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o600))

	c, err := queries.Load(dir)
	require.NoError(t, err)

	d, err := c.Lookup("0")
	require.NoError(t, err)
	assert.Equal(t, "Labels", d.Name)

	_, err = c.Lookup("Node_name")
	require.ErrorIs(t, err, models.ErrQueryNotFound)

	infos := c.Infos()
	require.NotEmpty(t, infos)
	assert.Equal(t, queries.Info{ID: 0, Name: "Labels", Start: "<http://ex.org/x>"}, infos[0])
}

func TestLoadDirRejectsBadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yml"), []byte("name: x\nbogus: 1\n"), 0o600))

	_, err := queries.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yml")
}
