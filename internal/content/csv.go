package content

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVProvider loads the pool from a local CSV file with a header row.
type CSVProvider struct {
	path string
}

func NewCSVProvider(path string) *CSVProvider {
	return &CSVProvider{path: path}
}

func (p *CSVProvider) Load(ctx context.Context) (*Pool, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("open content source: %w", err)
	}
	defer f.Close()

	items, err := parseCSV(stripBOM(f))
	if err != nil {
		return nil, err
	}
	return NewPool(items), nil
}

func parseCSV(r io.Reader) ([]Item, error) {
	reader := csv.NewReader(r)
	// Rows shorter than the header keep their defaults.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptySource
	}
	if err != nil {
		return nil, fmt.Errorf("read content header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, required := range []string{ColumnID, ColumnTitle, ColumnBody, ColumnTargetGroup} {
		if _, ok := cols[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMalformedSource, strings.Join(missing, ", "))
	}

	var items []Item
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read content row: %w", err)
		}
		field := func(name string) string {
			idx := cols[name]
			if idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}
		items = append(items, normalize(Item{
			ID:          field(ColumnID),
			Title:       field(ColumnTitle),
			Body:        field(ColumnBody),
			TargetGroup: field(ColumnTargetGroup),
		}))
	}
	if len(items) == 0 {
		return nil, ErrEmptySource
	}
	return items, nil
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rn, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rn != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
