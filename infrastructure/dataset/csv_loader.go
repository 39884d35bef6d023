package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"form_filler/domain/entities"
	"form_filler/domain/interfaces"

	"github.com/sirupsen/logrus"
)

const sniffSize = 8192

// candidateDelimiters are tried in order; earlier ones win ties.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

type CSVLoader struct {
	logger *logrus.Logger
}

func NewCSVLoader(logger *logrus.Logger) *CSVLoader {
	return &CSVLoader{logger: logger}
}

// Load reads a header-less delimited file. When limit > 0 only the first limit
// rows are kept.
func (l *CSVLoader) Load(path string, limit int) (*entities.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, sniffSize)
	sample, err := br.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	truncated := len(sample) >= sniffSize

	delimiter, ok := sniff(bytes.TrimPrefix(sample, utf8BOM), truncated)
	if ok {
		l.logger.Infof("Detected CSV delimiter: %q", delimiter)
	} else {
		delimiter = ','
		l.logger.Info("Could not detect CSV delimiter, assuming comma ','")
	}

	records, err := readRecords(skipBOM(br), delimiter)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, entities.ErrEmptyDataset
	}

	ds := &entities.Dataset{
		Path:      path,
		Headers:   headersFor(records),
		Delimiter: delimiter,
		Total:     len(records),
	}
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	ds.Rows = make([]entities.Row, len(records))
	for i, rec := range records {
		ds.Rows[i] = entities.Row{Index: i, Values: rec}
	}
	return ds, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func skipBOM(br *bufio.Reader) io.Reader {
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

func readRecords(r io.Reader, delimiter rune) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse data file: %w", err)
		}
		if blank(rec) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// headersFor names the columns after the widest row.
func headersFor(records [][]string) []string {
	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	if width == len(entities.DefaultHeaders) {
		return append([]string(nil), entities.DefaultHeaders...)
	}
	headers := make([]string, width)
	for i := range headers {
		headers[i] = entities.ColumnName(i)
	}
	return headers
}

// SniffDelimiter guesses the delimiter of sample. A candidate qualifies when it
// splits lines into more than one field. The winner gives the most lines with
// the same field count, then the most fields, then comes first in the list.
// A sample of sniffSize bytes or more is taken to end mid-line.
func SniffDelimiter(sample []byte) (rune, bool) {
	return sniff(sample, len(sample) >= sniffSize)
}

func sniff(sample []byte, truncated bool) (rune, bool) {
	lines := sampleLines(sample, truncated)
	if len(lines) == 0 {
		return 0, false
	}

	best, bestLines, bestFields := rune(0), 0, 0
	for _, d := range candidateDelimiters {
		n, fields := consistency(lines, d)
		if n > bestLines || (n == bestLines && n > 0 && fields > bestFields) {
			best, bestLines, bestFields = d, n, fields
		}
	}
	return best, bestLines > 0
}

// sampleLines splits sample into non-blank lines, dropping the last one when
// the sample was cut off.
func sampleLines(sample []byte, truncated bool) []string {
	text := strings.ReplaceAll(string(sample), "\r\n", "\n")
	raw := strings.Split(text, "\n")
	if truncated && len(raw) > 1 {
		raw = raw[:len(raw)-1]
	}
	lines := raw[:0]
	for _, line := range raw {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// consistency returns how many lines share the most common field count for d,
// and that count. Both are 0 when d never splits a line.
func consistency(lines []string, d rune) (int, int) {
	counts := make(map[int]int)
	for _, line := range lines {
		cr := csv.NewReader(strings.NewReader(line))
		cr.Comma = d
		cr.LazyQuotes = true
		rec, err := cr.Read()
		if err != nil {
			continue
		}
		if len(rec) > 1 {
			counts[len(rec)]++
		}
	}
	bestLines, bestFields := 0, 0
	for fields, n := range counts {
		if n > bestLines || (n == bestLines && fields > bestFields) {
			bestLines, bestFields = n, fields
		}
	}
	return bestLines, bestFields
}

var _ interfaces.DataSource = (*CSVLoader)(nil)
