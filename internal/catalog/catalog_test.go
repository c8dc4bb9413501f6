package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `{
  "Refrigerators": {"ticks": [3, 4, 5], "remarks": ""},
  "LED lamps": {"ticks": [], "remarks": "No energy label. Any LED lamp qualifies."},
  "Air-conditioners": {"ticks": [4, 5], "remarks": "Single or multi-split systems."}
}`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"Air-conditioners", "LED lamps", "Refrigerators"}, c.Names())

	fridge, ok := c.Lookup("Refrigerators")
	require.True(t, ok)
	assert.Equal(t, []int{3, 4, 5}, fridge.Ticks)
	assert.True(t, fridge.HasEnergyLabel())

	lamps, ok := c.Lookup("LED lamps")
	require.True(t, ok)
	assert.False(t, lamps.HasEnergyLabel())

	_, ok = c.Lookup("Television")
	assert.False(t, ok)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(`{}`))
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = Parse([]byte(`[1, 2]`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"Fans": {"ticks": "three"}}`))
	assert.Error(t, err)
}

func TestParse_MissingTicksMeansNoLabel(t *testing.T) {
	c, err := Parse([]byte(`{"Water fittings": {"remarks": "WELS rated"}}`))
	require.NoError(t, err)

	req, ok := c.Lookup("Water fittings")
	require.True(t, ok)
	assert.Equal(t, []int{}, req.Ticks)
	assert.Contains(t, c.Reference(), `"ticks": []`)
}

func TestReference_StableAndComplete(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	ref := c.Reference()
	assert.Equal(t, ref, c.Reference())
	assert.Contains(t, ref, `"Refrigerators"`)
	assert.Contains(t, ref, `"remarks": "Single or multi-split systems."`)
	assert.Less(t, strings.Index(ref, "Air-conditioners"), strings.Index(ref, "Refrigerators"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eligible_products.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestNames_ReturnsCopy(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	names := c.Names()
	names[0] = "changed"
	assert.Equal(t, "Air-conditioners", c.Names()[0])
}
