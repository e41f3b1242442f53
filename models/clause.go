package models

// Clause represents one addressable, numbered segment of a contract.
// Clauses are immutable once segmented; Number is 1-based and stable for
// the lifetime of an analysis.
type Clause struct {
	Number  int    `json:"number"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}
