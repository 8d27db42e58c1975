package spreadsheet

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/okian/handball/internal/domain/model"
	"github.com/okian/handball/pkg/logger"
	"github.com/okian/handball/pkg/metrics"
)

const defaultRowHeight = 15

// Codec reads and writes workbooks and reports each call to metrics.
type Codec struct {
	log       logger.Logger
	rowHeight float64
}

// New returns a codec.
func New(opts ...Option) *Codec {
	c := &Codec{
		log:       logger.OrNop("spreadsheet"),
		rowHeight: defaultRowHeight,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCodec = New()

// Write encodes groups with the default codec.
func Write(ctx context.Context, groups []model.Group) ([]byte, error) {
	return defaultCodec.Write(ctx, groups)
}

// Read decodes a workbook with the default codec.
func Read(ctx context.Context, r io.Reader) ([]model.Group, error) {
	return defaultCodec.Read(ctx, r)
}

// Write encodes groups as an xlsx workbook. Every row gets an explicit height
// so that a player with no values still occupies its row.
func (c *Codec) Write(ctx context.Context, groups []model.Group) (out []byte, err error) {
	start := time.Now()
	defer func() { c.observe(ctx, "write", start, err) }()

	if len(groups) == 0 {
		return nil, ErrNoGroups
	}
	if err := checkSheetNames(groups); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: header style: %w", ErrEncode, err)
	}

	first := f.GetSheetName(0)
	for i, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i == 0 {
			err = f.SetSheetName(first, g.Name)
		} else {
			_, err = f.NewSheet(g.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %w", ErrEncode, g.Name, err)
		}
		if err := c.writeSheet(f, g, header); err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %w", ErrEncode, g.Name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

func (c *Codec) writeSheet(f *excelize.File, g model.Group, headerStyle int) error {
	sheet := g.Name
	for col, label := range Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, label); err != nil {
			return err
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		width := float64(max(utf8.RuneCountInString(label)+2, minColumnWidth))
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheet, 1, c.rowHeight); err != nil {
		return err
	}

	for i, p := range g.Players {
		row := i + 2
		for col, field := range columnFields {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if field.Kind() == model.KindText {
				if s := p.Text(field); s != "" {
					if err := f.SetCellStr(sheet, cell, s); err != nil {
						return err
					}
				}
				continue
			}
			if v := p.Number(field); v != nil {
				if err := f.SetCellFloat(sheet, cell, *v, -1, 64); err != nil {
					return err
				}
			}
		}
		if err := f.SetRowHeight(sheet, row, c.rowHeight); err != nil {
			return err
		}
	}
	return nil
}

// checkSheetNames rejects names that would collide as sheet names, which
// compare case-insensitively.
func checkSheetNames(groups []model.Group) error {
	seen := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		key := strings.ToLower(g.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate sheet name %q", ErrEncode, g.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Read decodes a workbook into groups, one per sheet in workbook order. The
// first row of each sheet is skipped; later rows map positionally onto the
// player fields. Name cells stay text, every other cell becomes a finite
// number or nil. Derived values are taken as written, not recomputed.
func (c *Codec) Read(ctx context.Context, r io.Reader) (groups []model.Group, err error) {
	start := time.Now()
	defer func() { c.observe(ctx, "read", start, err) }()

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedWorkbook, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	groups = make([]model.Group, 0, len(sheets))
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g, err := readSheet(f, sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %w", ErrMalformedWorkbook, sheet, err)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func readSheet(f *excelize.File, sheet string) (model.Group, error) {
	g := model.NewGroup(sheet)
	rows, err := f.Rows(sheet)
	if err != nil {
		return g, err
	}
	defer func() { _ = rows.Close() }()

	header := true
	for rows.Next() {
		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return g, err
		}
		if header {
			header = false
			continue
		}
		g.Players = append(g.Players, playerFromCells(cells))
	}
	if err := rows.Error(); err != nil {
		return g, err
	}
	return g, nil
}

func playerFromCells(cells []string) model.Player {
	p := model.NewPlayer()
	for col, field := range columnFields {
		var raw string
		if col < len(cells) {
			raw = cells[col]
		}
		if field.Kind() == model.KindText {
			p.SetText(field, raw)
			continue
		}
		p.SetNumber(field, parseNumber(raw))
	}
	return p
}

// parseNumber returns nil for empty or non-numeric text.
func parseNumber(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (c *Codec) observe(ctx context.Context, op string, start time.Time, err error) {
	elapsed := time.Since(start)
	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultError
		c.log.Warn(ctx, "spreadsheet "+op+" failed", logger.Error(err), logger.Duration("elapsed", elapsed))
	} else {
		c.log.Debug(ctx, "spreadsheet "+op, logger.Duration("elapsed", elapsed))
	}
	metrics.RecordSpreadsheetOp(op, result, float64(elapsed.Microseconds())/1000)
}
