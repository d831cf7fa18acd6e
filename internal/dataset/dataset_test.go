package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Start,End,Type,Module,Description
2024-03-01,2024-03-15,Feature,Search,"New search UI released"
2024-02-10,,Fix,Review,"Fixed batching, reviewers can resume"
`

func TestParse(t *testing.T) {
	records, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, Record{
		StartDate:   "2024-03-01",
		EndDate:     "2024-03-15",
		Kind:        "Feature",
		Module:      "Search",
		Description: "New search UI released",
	}, records[0])
	assert.Equal(t, "", records[1].EndDate)
	assert.Equal(t, "Fixed batching, reviewers can resume", records[1].Description)
}

func TestParse_WrongColumnCount(t *testing.T) {
	_, err := Parse(strings.NewReader("a,b,c\n1,2,3\n"))
	require.ErrorIs(t, err, ErrColumns)
}

func TestParse_ShortRowsPadded(t *testing.T) {
	records, err := Parse(strings.NewReader("a,b,c,d,e\n2024-01-01,2024-01-02,Feature\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Feature", records[0].Kind)
	assert.Empty(t, records[0].Module)
	assert.Empty(t, records[0].Description)
}

func TestParse_WideRowRejected(t *testing.T) {
	_, err := Parse(strings.NewReader("a,b,c,d,e\n2024-01-01,,Fix,Search,x\n2024-02-01,,Fix,Search,y,extra\n"))
	require.ErrorIs(t, err, ErrColumns)
	assert.Contains(t, err.Error(), "line 3 has 6")
}

func TestParse_SkipsBlankRows(t *testing.T) {
	records, err := Parse(strings.NewReader("a,b,c,d,e\n,,,,\n2024-01-01,,Fix,Search,x\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Search", records[0].Module)
}

func TestParse_Empty(t *testing.T) {
	records, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFile_ReloadsEveryCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "releases.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	f := NewFile(path)
	first, err := f.Load()
	require.NoError(t, err)
	require.Len(t, first, 2)

	require.NoError(t, os.WriteFile(path, []byte("a,b,c,d,e\n2025-01-01,,Feature,Viewer,Dark mode\n"), 0o644))
	second, err := f.Load()
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "Viewer", second[0].Module)
}

func TestFile_Missing(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "nope.csv")).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening dataset")
}
