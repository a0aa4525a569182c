package models

// RowError records a row that could not be persisted during an import.
type RowError struct {
	Row         int    `json:"row"`
	Description string `json:"description"`
	Err         string `json:"error"`
}

// ImportResult summarizes a single-file import.
type ImportResult struct {
	BatchID  string     `json:"batch_id"`
	ParserID string     `json:"parser_id"`
	Count    int        `json:"count"`
	IDs      []int64    `json:"ids"`
	Message  string     `json:"message"`
	Errors   []RowError `json:"errors,omitempty"`

	// RulesError is set when the rows were stored but the active rules could
	// not be applied to them.
	RulesError string `json:"rules_error,omitempty"`
}

// FileResult is the outcome of one file inside a multi-file import.
type FileResult struct {
	Filename string  `json:"filename"`
	Success  bool    `json:"success"`
	Count    int     `json:"count"`
	IDs      []int64 `json:"ids"`
	Message  string  `json:"message,omitempty"`
	Error    string  `json:"error,omitempty"`

	// RulesError mirrors ImportResult.RulesError.
	RulesError string `json:"rules_error,omitempty"`
}

// BatchResult aggregates a multi-file import. Totals only count files that
// succeeded.
type BatchResult struct {
	TotalFiles    int          `json:"total_files"`
	Succeeded     int          `json:"succeeded"`
	Failed        int          `json:"failed"`
	TotalImported int          `json:"total_imported"`
	Results       []FileResult `json:"results"`
}

// ApplyStats is returned by retroactive rule application.
type ApplyStats struct {
	Processed int `json:"processed"`
	Modified  int `json:"modified"`
}
