package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"

	"gosc/domain/core"
	"gosc/domain/dataset"
	"gosc/internal"
	apperrors "gosc/internal/errors"
	"gosc/ports"
)

// SpectraReader reads a spectra table from an Excel or CSV file.
//
// The first row is the header. The sample column (the first column unless
// configured) holds sample ids, the response column holds the property
// being modelled and every other column is a measurement channel.
type SpectraReader struct {
	config   ExcelConfig
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

var _ ports.SpectraReaderPort = (*SpectraReader)(nil)

// NewSpectraReader creates a reader that handles both Excel and CSV files
func NewSpectraReader(config ExcelConfig, logger *internal.Logger) *SpectraReader {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	if config.Sheet == "" {
		config.Sheet = DefaultExcelConfig().Sheet
	}
	if config.ResponseColumn == "" {
		config.ResponseColumn = DefaultExcelConfig().ResponseColumn
	}
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &SpectraReader{config: config, fileType: fileType, logger: logger}
}

// ReadSpectra loads the file into a validated Spectra value
func (r *SpectraReader) ReadSpectra(ctx context.Context) (*dataset.Spectra, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.logger.Debug("[SpectraReader] reading %s file: %s", r.fileType, r.config.FilePath)

	if _, err := os.Stat(r.config.FilePath); os.IsNotExist(err) {
		return nil, apperrors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.config.FilePath))
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return r.processRows(rows)
}

func (r *SpectraReader) readExcelRows() ([][]string, error) {
	start := time.Now()
	f, err := excelize.OpenFile(r.config.FilePath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.WithCode(apperrors.CodeInvalidInput, err), "failed to open Excel file")
	}
	defer f.Close()

	rows, err := f.GetRows(r.config.Sheet)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.WithCode(apperrors.CodeInvalidInput, err), "failed to read sheet %q", r.config.Sheet)
	}
	r.logger.Debug("[SpectraReader] sheet %s read in %.2fms (%d rows)",
		r.config.Sheet, float64(time.Since(start).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *SpectraReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.config.FilePath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.WithCode(apperrors.CodeInvalidInput, err), "failed to open CSV file")
	}
	defer file.Close()

	start := time.Now()
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // ragged rows are reported by processRows
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.WithCode(apperrors.CodeInvalidInput, err), "failed to read CSV file")
	}
	r.logger.Debug("[SpectraReader] CSV file read in %.2fms (%d rows)",
		float64(time.Since(start).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// processRows converts raw string rows into spectra
func (r *SpectraReader) processRows(rows [][]string) (*dataset.Spectra, error) {
	rows = dropEmptyRows(rows)
	if len(rows) < 3 {
		return nil, apperrors.InvalidInput("file must have a header row and at least two sample rows")
	}

	headers := make([]string, len(rows[0]))
	seen := make(map[string]bool, len(headers))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
		key := strings.ToLower(headers[i])
		if key == "" {
			return nil, apperrors.InvalidInput(fmt.Sprintf("header column %d is empty", i+1))
		}
		if seen[key] {
			return nil, apperrors.InvalidInput(fmt.Sprintf("duplicate header %q", headers[i]))
		}
		seen[key] = true
	}

	sampleIdx := 0
	if r.config.SampleColumn != "" {
		sampleIdx = indexOf(headers, r.config.SampleColumn)
		if sampleIdx < 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("sample column %q not found", r.config.SampleColumn))
		}
	}
	responseIdx := indexOf(headers, r.config.ResponseColumn)
	if responseIdx < 0 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("response column %q not found", r.config.ResponseColumn))
	}
	if responseIdx == sampleIdx {
		return nil, apperrors.InvalidInput("sample and response columns must differ")
	}

	channelIdx := make([]int, 0, len(headers)-2)
	channels := make([]core.ChannelKey, 0, len(headers)-2)
	for i, h := range headers {
		if i == sampleIdx || i == responseIdx {
			continue
		}
		key, err := core.ParseChannelKey(h)
		if err != nil {
			return nil, apperrors.WithCode(apperrors.CodeInvalidInput, err)
		}
		channelIdx = append(channelIdx, i)
		channels = append(channels, key)
	}
	if len(channels) == 0 {
		return nil, apperrors.InvalidInput("file has no measurement channels")
	}

	samples := len(rows) - 1
	x := mat.NewDense(samples, len(channels), nil)
	y := mat.NewVecDense(samples, nil)
	ids := make([]core.SampleID, samples)

	for s := 0; s < samples; s++ {
		row := rows[s+1]
		line := s + 2
		if len(row) != len(headers) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("row %d has %d cells, expected %d", line, len(row), len(headers)))
		}

		id := strings.TrimSpace(row[sampleIdx])
		if id == "" {
			id = fmt.Sprintf("row_%d", line)
		}
		ids[s] = core.SampleID(id)

		v, err := parseCell(row[responseIdx], line, headers[responseIdx])
		if err != nil {
			return nil, err
		}
		y.SetVec(s, v)

		for j, c := range channelIdx {
			v, err := parseCell(row[c], line, headers[c])
			if err != nil {
				return nil, err
			}
			x.Set(s, j, v)
		}
	}

	spectra := &dataset.Spectra{
		X:         x,
		Y:         y,
		SampleIDs: ids,
		Channels:  channels,
		Response:  headers[responseIdx],
		Source:    r.config.FilePath,
		CreatedAt: core.Now(),
	}
	if err := spectra.Validate(); err != nil {
		return nil, err
	}

	r.logger.Info("[SpectraReader] loaded %d samples × %d channels from %s",
		samples, len(channels), r.config.FilePath)
	return spectra, nil
}

func parseCell(cell string, line int, column string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, apperrors.InvalidInput(fmt.Sprintf("row %d column %q: %q is not numeric", line, column, cell))
	}
	return v, nil
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if strings.EqualFold(h, strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

// dropEmptyRows removes rows with no content, which spreadsheets often
// carry at the end of a sheet
func dropEmptyRows(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
