// Package loader imports opinions in bulk from a CSV file.
//
// The first line is a header naming Opinion fields: title and text are
// required, source and added_by are optional. id and timestamp are accepted
// so a table export loads back, but their values are ignored: the store
// assigns both. Any other column is rejected.
// Rows are inserted one at a time; the first failing row stops the load
// and rows already inserted stay.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sakif/what-to-watch/internal/model"
)

// Column names accepted in the header row.
const (
	ColumnTitle   = "title"
	ColumnText    = "text"
	ColumnSource  = "source"
	ColumnAddedBy = "added_by"

	ColumnID        = "id"
	ColumnTimestamp = "timestamp"
)

// ErrHeader is returned when the header row is missing or malformed.
var ErrHeader = errors.New("loader: invalid header")

// Creator stores one opinion. service.OpinionService satisfies it.
type Creator interface {
	Create(ctx context.Context, draft model.OpinionDraft) (*model.Opinion, error)
}

// Load reads CSV from r and stores every row through c. It returns the
// number of opinions inserted, which is meaningful even when err != nil.
func Load(ctx context.Context, r io.Reader, c Creator) (int, error) {
	// BOMOverride strips a UTF-8 BOM and decodes UTF-16 if one says so.
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = 0
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: empty file", ErrHeader)
	}
	if err != nil {
		return 0, fmt.Errorf("reading header: %w", err)
	}
	columns, err := parseHeader(header)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return inserted, nil
		}
		if err != nil {
			return inserted, fmt.Errorf("row %d: %w", row, err)
		}

		if _, err := c.Create(ctx, columns.draft(record)); err != nil {
			return inserted, fmt.Errorf("row %d: %w", row, err)
		}
		inserted++
	}
}

// columnIndex maps each known column to its position, -1 when absent.
type columnIndex struct {
	title, text, source, addedBy int
	id, timestamp                int
}

func parseHeader(header []string) (columnIndex, error) {
	idx := columnIndex{title: -1, text: -1, source: -1, addedBy: -1, id: -1, timestamp: -1}
	for i, name := range header {
		var slot *int
		switch strings.ToLower(strings.TrimSpace(name)) {
		case ColumnTitle:
			slot = &idx.title
		case ColumnText:
			slot = &idx.text
		case ColumnSource:
			slot = &idx.source
		case ColumnAddedBy:
			slot = &idx.addedBy
		case ColumnID:
			slot = &idx.id
		case ColumnTimestamp:
			slot = &idx.timestamp
		default:
			return idx, fmt.Errorf("%w: unknown column %q", ErrHeader, name)
		}
		if *slot != -1 {
			return idx, fmt.Errorf("%w: duplicate column %q", ErrHeader, name)
		}
		*slot = i
	}
	if idx.title == -1 || idx.text == -1 {
		return idx, fmt.Errorf("%w: title and text columns are required", ErrHeader)
	}
	return idx, nil
}

func (c columnIndex) draft(record []string) model.OpinionDraft {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	return model.OpinionDraft{
		Title:   field(c.title),
		Text:    field(c.text),
		Source:  field(c.source),
		AddedBy: field(c.addedBy),
	}
}
