package dataset

import (
	"context"
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	apperrors "plp-dashboard/internal/errors"
	"plp-dashboard/internal/models"
)

const (
	batchSize    = 5000
	maxWorkers   = 8
	cacheVersion = "v1"
)

// Required columns of the input dataset, matched case-insensitively against
// the header row.
const (
	colProduct  = "product name"
	colDivision = "division"
	colDate     = "date"
	colSales    = "sales"
	colCost     = "cost"
	colUnits    = "units"
)

var requiredColumns = []string{colProduct, colDivision, colDate, colSales, colCost, colUnits}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01-02-06",
	"1/2/2006",
	"01/02/2006",
	"2006/01/02",
}

// Snapshot is one raw load of the dataset. Only the raw load is cached;
// everything derived from it is filter-relative and recomputed per request.
type Snapshot struct {
	Records       []models.Record
	Source        string
	SourceModTime time.Time
	LoadedAt      time.Time
	SkippedRows   int
}

type Loader struct {
	cacheDir string
	logger   *slog.Logger
}

func NewLoader(cacheDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{cacheDir: cacheDir, logger: logger}
}

// Load reads the dataset at path, serving from the snapshot cache when the
// source file is unchanged. Sheet selects the worksheet for .xlsx sources;
// empty means the first sheet.
func (l *Loader) Load(ctx context.Context, path, sheet string) (*Snapshot, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.DataFormatWrap(err, fmt.Sprintf("dataset %q is not readable", path))
	}

	if cached, err := l.loadFromCache(path); err == nil && cached.SourceModTime.Equal(fileInfo.ModTime()) {
		l.logger.Info("dataset served from cache", "source", path, "records", len(cached.Records))
		return cached, nil
	}

	start := time.Now()

	var records []models.Record
	var skipped int
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, skipped, err = l.loadWorkbook(ctx, path, sheet)
	case ".csv":
		records, skipped, err = l.loadCSV(ctx, path)
	default:
		return nil, apperrors.DataFormat(fmt.Sprintf("unsupported dataset format %q", filepath.Ext(path)))
	}
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Records:       records,
		Source:        path,
		SourceModTime: fileInfo.ModTime(),
		LoadedAt:      time.Now(),
		SkippedRows:   skipped,
	}

	if err := l.saveToCache(snapshot); err != nil {
		l.logger.Warn("failed to save dataset cache", "error", err)
	}

	l.logger.Info("dataset loaded",
		"source", path,
		"records", len(records),
		"skipped_rows", skipped,
		"duration", time.Since(start))

	return snapshot, nil
}

func (l *Loader) loadWorkbook(ctx context.Context, path, sheet string) ([]models.Record, int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, 0, apperrors.DataFormatWrap(err, "open workbook")
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, 0, apperrors.DataFormat("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, 0, apperrors.DataFormatWrap(err, fmt.Sprintf("read sheet %q", sheet))
	}

	return l.parseRows(ctx, rows)
}

func (l *Loader) loadCSV(ctx context.Context, path string) ([]models.Record, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, apperrors.DataFormatWrap(err, "open file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, 0, apperrors.DataFormatWrap(err, "read csv")
	}

	return l.parseRows(ctx, rows)
}

// parseRows maps the header, then parses data rows in batches through a
// bounded worker pool, preserving the original row order.
func (l *Loader) parseRows(ctx context.Context, rows [][]string) ([]models.Record, int, error) {
	if len(rows) == 0 {
		return nil, 0, apperrors.DataFormat("dataset is empty")
	}

	cols, err := mapColumns(rows[0])
	if err != nil {
		return nil, 0, err
	}

	data := rows[1:]
	if len(data) == 0 {
		return nil, 0, apperrors.DataFormat("dataset has no data rows")
	}

	numBatches := (len(data) + batchSize - 1) / batchSize
	parsed := make([][]models.Record, numBatches)
	skippedPerBatch := make([]int, numBatches)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for i := 0; i < numBatches; i++ {
		lo := i * batchSize
		hi := min(lo+batchSize, len(data))
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			batch := make([]models.Record, 0, hi-lo)
			for _, row := range data[lo:hi] {
				record, err := parseRecord(row, cols)
				if err != nil {
					skippedPerBatch[i]++
					continue
				}
				batch = append(batch, record)
			}
			parsed[i] = batch
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	records := make([]models.Record, 0, len(data))
	skipped := 0
	for i := range parsed {
		records = append(records, parsed[i]...)
		skipped += skippedPerBatch[i]
	}

	if len(records) == 0 {
		return nil, 0, apperrors.DataFormat("no rows with valid column types; check date and numeric columns")
	}

	return records, skipped, nil
}

type columnIndex map[string]int

func mapColumns(header []string) (columnIndex, error) {
	cols := make(columnIndex, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.DataFormat(fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")))
	}

	return cols, nil
}

func parseRecord(row []string, cols columnIndex) (models.Record, error) {
	date, err := parseDate(cell(row, cols[colDate]))
	if err != nil {
		return models.Record{}, err
	}

	sales, err := parseAmount(cell(row, cols[colSales]))
	if err != nil {
		return models.Record{}, err
	}

	cost, err := parseAmount(cell(row, cols[colCost]))
	if err != nil {
		return models.Record{}, err
	}

	units, err := parseCount(cell(row, cols[colUnits]))
	if err != nil {
		return models.Record{}, err
	}

	return models.Record{
		ProductName: cell(row, cols[colProduct]),
		Division:    cell(row, cols[colDivision]),
		Date:        date,
		Sales:       sales,
		Cost:        cost,
		Units:       units,
	}, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	return strconv.ParseFloat(s, 64)
}

func parseCount(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	// Spreadsheet cells sometimes render counts as floats.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// Cache management. The cache holds raw records only, keyed by source path,
// and is valid while the source modtime is unchanged.
func (l *Loader) cacheFilename(source string) string {
	sanitized := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(source)
	return filepath.Join(l.cacheDir, fmt.Sprintf("%s_%s.gob", sanitized, cacheVersion))
}

func (l *Loader) saveToCache(snapshot *Snapshot) error {
	if l.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		return err
	}

	f, err := os.Create(l.cacheFilename(snapshot.Source))
	if err != nil {
		return err
	}
	defer f.Close()

	return gob.NewEncoder(f).Encode(snapshot)
}

func (l *Loader) loadFromCache(source string) (*Snapshot, error) {
	if l.cacheDir == "" {
		return nil, os.ErrNotExist
	}

	f, err := os.Open(l.cacheFilename(source))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var snapshot Snapshot
	if err := gob.NewDecoder(f).Decode(&snapshot); err != nil {
		return nil, err
	}

	return &snapshot, nil
}
