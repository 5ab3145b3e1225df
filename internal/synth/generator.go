package synth

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"
)

// Dataset is a synthetic spectral calibration set.
//
// Every spectrum is a sum of
// - an analyte band whose height follows the response
// - an interferent band with its own random height
// - a baseline offset and slope (scatter)
// - white noise
//
// The interferent and the baseline make up the structured variation that is
// unrelated to the response.
type Dataset struct {
	Headers []string
	Rows    [][]string // already formatted/rounded strings

	// Numeric series for tests
	SampleIDs []string
	X         [][]float64 // [rows][channels]
	Y         []float64
	Nuisance  []float64 // interferent band heights
}

type Config struct {
	Rows     int
	Channels int
	Seed     int64

	// Coupling scales the analyte band with the response
	Coupling float64
	// Interference scales the interferent band
	Interference float64
	Noise        float64

	ResponseColumn string
	Decimals       int
}

func DefaultConfig() Config {
	return Config{
		Rows:           30,
		Channels:       20,
		Seed:           42,
		Coupling:       1.0,
		Interference:   3.0,
		Noise:          0.01,
		ResponseColumn: "response",
		Decimals:       6,
	}
}

func Generate(cfg Config) (*Dataset, error) {
	if cfg.Rows <= 0 {
		return nil, fmt.Errorf("rows must be > 0")
	}
	if cfg.Channels <= 0 {
		return nil, fmt.Errorf("channels must be > 0")
	}
	if cfg.Decimals <= 0 {
		cfg.Decimals = 6
	}
	if cfg.ResponseColumn == "" {
		cfg.ResponseColumn = "response"
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	analyteCenter := float64(cfg.Channels) * 0.3
	interferentCenter := float64(cfg.Channels) * 0.7
	width := math.Max(float64(cfg.Channels)/10, 1)

	ids := make([]string, cfg.Rows)
	y := make([]float64, cfg.Rows)
	nuisance := make([]float64, cfg.Rows)
	x := make([][]float64, cfg.Rows)
	for i := 0; i < cfg.Rows; i++ {
		ids[i] = fmt.Sprintf("S%03d", i+1)
		y[i] = 1 + rng.NormFloat64()
		nuisance[i] = rng.Float64()
		offset := rng.Float64() * 0.5
		slope := rng.NormFloat64() * 0.02

		x[i] = make([]float64, cfg.Channels)
		for j := 0; j < cfg.Channels; j++ {
			c := float64(j)
			x[i][j] = cfg.Coupling*y[i]*band(c, analyteCenter, width) +
				cfg.Interference*nuisance[i]*band(c, interferentCenter, width) +
				offset + slope*c +
				rng.NormFloat64()*cfg.Noise
		}
	}

	headers := make([]string, 0, cfg.Channels+2)
	headers = append(headers, "sample")
	for j := 1; j <= cfg.Channels; j++ {
		headers = append(headers, fmt.Sprintf("ch_%03d", j))
	}
	headers = append(headers, cfg.ResponseColumn)

	rows := make([][]string, cfg.Rows)
	for i := 0; i < cfg.Rows; i++ {
		r := make([]string, 0, len(headers))
		r = append(r, ids[i])
		for j := 0; j < cfg.Channels; j++ {
			r = append(r, fToStr(x[i][j], cfg.Decimals))
		}
		r = append(r, fToStr(y[i], cfg.Decimals))
		rows[i] = r
	}

	return &Dataset{
		Headers:   headers,
		Rows:      rows,
		SampleIDs: ids,
		X:         x,
		Y:         y,
		Nuisance:  nuisance,
	}, nil
}

// Matrix returns the spectra and response as gonum types
func (ds *Dataset) Matrix() (*mat.Dense, *mat.VecDense) {
	rows := len(ds.X)
	cols := 0
	if rows > 0 {
		cols = len(ds.X[0])
	}
	data := make([]float64, 0, rows*cols)
	for _, row := range ds.X {
		data = append(data, row...)
	}
	y := make([]float64, rows)
	copy(y, ds.Y)
	return mat.NewDense(rows, cols, data), mat.NewVecDense(rows, y)
}

// RandomDesign returns a rows×cols standard normal matrix and a response
// y = coupling·x₀ + 0.1·noise driven by its first column.
func RandomDesign(rows, cols int, seed int64, coupling float64) (*mat.Dense, *mat.VecDense) {
	rng := rand.New(rand.NewSource(seed))
	x := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			x.Set(i, j, rng.NormFloat64())
		}
	}
	y := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		y.SetVec(i, coupling*x.At(i, 0)+0.1*rng.NormFloat64())
	}
	return x, y
}

func WriteCSV(path string, ds *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(ds.Headers); err != nil {
		return err
	}
	for _, row := range ds.Rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteXLSX writes the dataset to the given sheet, numbers as numeric cells
func WriteXLSX(path, sheet string, ds *Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return err
		}
		f.SetActiveSheet(idx)
	}

	for i, h := range ds.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for r := 0; r < len(ds.X); r++ {
		rowIdx := r + 2
		values := make([]interface{}, 0, len(ds.X[r])+2)
		values = append(values, ds.SampleIDs[r])
		for _, v := range ds.X[r] {
			values = append(values, v)
		}
		values = append(values, ds.Y[r])

		cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

// band is a unit-height Gaussian peak
func band(x, center, width float64) float64 {
	d := (x - center) / width
	return math.Exp(-0.5 * d * d)
}

func fToStr(x float64, decimals int) string {
	p := math.Pow10(decimals)
	x = math.Round(x*p) / p
	return strconv.FormatFloat(x, 'f', decimals, 64)
}
