package dataset

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form_filler/domain/entities"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newLoader() *CSVLoader {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewCSVLoader(l)
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		sample string
		want   rune
		ok     bool
	}{
		{name: "comma", sample: "a,b,c\nd,e,f\n", want: ',', ok: true},
		{name: "semicolon", sample: "Ann;Lee;F;31;100\nBob;Ray;M;40;101\n", want: ';', ok: true},
		{name: "tab", sample: "a\tb\nc\td\n", want: '\t', ok: true},
		{name: "pipe", sample: "a|b|c\nd|e|f\n", want: '|', ok: true},
		{name: "semicolon beats stray comma", sample: "Smith, Ann;F;31\nLee, Bob;M;40\nRay, Cy;M;22\n", want: ';', ok: true},
		{name: "equal splits prefer comma", sample: "a,b;c\nd,e;f\n", want: ',', ok: true},
		{name: "equal splits prefer semicolon over tab", sample: "a;b\tc\nd;e\tf\n", want: ';', ok: true},
		{name: "equal line counts prefer more fields", sample: "a,b;c;d\ne,f;g;h\n", want: ';', ok: true},
		{name: "single column", sample: "alpha\nbeta\n", ok: false},
		{name: "empty", sample: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SniffDelimiter([]byte(tt.sample))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLoadFiveColumns(t *testing.T) {
	path := writeFile(t, "Ann;Lee;F;31;100\nBob;Ray;M;40;101\n\nCy;Ko;M;22;102\n")

	ds, err := newLoader().Load(path, 0)
	require.NoError(t, err)

	assert.Equal(t, ';', ds.Delimiter)
	assert.Equal(t, entities.DefaultHeaders, ds.Headers)
	assert.Equal(t, 3, ds.Total)
	require.Equal(t, 3, ds.Len())
	assert.False(t, ds.Truncated())
	assert.Equal(t, 2, ds.Rows[2].Index)
	assert.Equal(t, []string{"Cy", "Ko", "M", "22", "102"}, ds.Rows[2].Values)
}

func TestLoadPositionalHeaders(t *testing.T) {
	path := writeFile(t, "a,b,c\nd,e\n")

	ds, err := newLoader().Load(path, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"col_0", "col_1", "col_2"}, ds.Headers)
	assert.Equal(t, []string{"d", "e"}, ds.Rows[1].Values)
}

func TestLoadLimit(t *testing.T) {
	path := writeFile(t, "a,b\nc,d\ne,f\n")

	tests := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: 3},
		{limit: 2, want: 2},
		{limit: 3, want: 3},
		{limit: 10, want: 3},
	}
	for _, tt := range tests {
		ds, err := newLoader().Load(path, tt.limit)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ds.Len(), "limit %d", tt.limit)
		assert.Equal(t, 3, ds.Total)
	}
}

func TestLoadStripsBOM(t *testing.T) {
	path := writeFile(t, "\xEF\xBB\xBFAnn,Lee,F,31,100\n")

	ds, err := newLoader().Load(path, 0)
	require.NoError(t, err)
	assert.Equal(t, "Ann", ds.Rows[0].Values[0])
}

func TestLoadQuotedValues(t *testing.T) {
	path := writeFile(t, "\"Lee, Ann\",Smith,F,31,100\nBob,Ray,M,40,101\n")

	ds, err := newLoader().Load(path, 0)
	require.NoError(t, err)
	assert.Equal(t, "Lee, Ann", ds.Rows[0].Values[0])
	assert.Equal(t, entities.DefaultHeaders, ds.Headers)
}

func TestLoadErrors(t *testing.T) {
	_, err := newLoader().Load(filepath.Join(t.TempDir(), "missing.csv"), 0)
	assert.ErrorContains(t, err, "failed to open data file")

	_, err = newLoader().Load(writeFile(t, "\n  \n"), 0)
	assert.ErrorIs(t, err, entities.ErrEmptyDataset)
}

func TestLoadLargeFileBeyondSample(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 2000; i++ {
		b.WriteString("first;last;F;30;12345\n")
	}
	ds, err := newLoader().Load(writeFile(t, b.String()), 0)
	require.NoError(t, err)
	assert.Equal(t, ';', ds.Delimiter)
	assert.Equal(t, 2000, ds.Len())
}

func TestSampleLinesDropsCutLine(t *testing.T) {
	assert.Equal(t, []string{"a;b", "c;d"}, sampleLines([]byte("a;b\nc;d\ne;"), true))
	assert.Equal(t, []string{"a;b", "c;d", "e;"}, sampleLines([]byte("a;b\nc;d\ne;"), false))
	assert.Equal(t, []string{"only"}, sampleLines([]byte("only"), true))
}

func TestSniffIgnoresCutLine(t *testing.T) {
	sample := []byte("a,b;c\nd;e;f")
	got, ok := sniff(sample, true)
	require.True(t, ok)
	assert.Equal(t, ',', got)

	got, ok = sniff(sample, false)
	require.True(t, ok)
	assert.Equal(t, ';', got)
}

func TestLoadLargeBOMFile(t *testing.T) {
	var b strings.Builder
	b.WriteString("\uFEFF")
	for b.Len() <= sniffSize {
		b.WriteString("Ann;Lee;F;31;100\n")
	}

	ds, err := newLoader().Load(writeFile(t, b.String()), 0)
	require.NoError(t, err)
	assert.Equal(t, ';', ds.Delimiter)
	assert.Equal(t, "Ann", ds.Rows[0].Values[0])
	assert.Equal(t, entities.DefaultHeaders, ds.Headers)
}
