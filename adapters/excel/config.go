package excel

// ExcelConfig holds configuration for a spectra file source
type ExcelConfig struct {
	FilePath       string `json:"file_path"`
	Sheet          string `json:"sheet"`           // xlsx only
	SampleColumn   string `json:"sample_column"`   // empty selects the first column
	ResponseColumn string `json:"response_column"` // required
}

// DefaultExcelConfig returns sensible defaults for spectra files
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		Sheet:          "Sheet1",
		ResponseColumn: "response",
	}
}
