package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Row is one CSV record keyed by header.
type Row map[string]string

// ReadCSV loads a CSV object whose first line is the header.
func ReadCSV(ctx context.Context, r ObjectReader, bucket, key string) ([]Row, error) {
	body, err := r.Open(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return ParseCSV(body)
}

// ParseCSV reads header-keyed rows. A UTF-8 byte order mark on the header is dropped.
func ParseCSV(in io.Reader) ([]Row, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		row := make(Row, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Nullable returns nil for empty values and the literal NULL.
func (r Row) Nullable(col string) *string {
	v, ok := r[col]
	if !ok || v == "" || v == "NULL" {
		return nil
	}
	return &v
}
