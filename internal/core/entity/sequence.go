package entity

// SequenceKey identifies one counter. Period is empty for year-scoped
// document types, "YYYYMM" or "YYYYMMDD" for month and day scoped ones.
type SequenceKey struct {
	DocumentType string `db:"document_type"`
	FiscalYearID int64  `db:"fiscal_year_id"`
	Period       string `db:"period"`
}

// SequenceCounter is the single authoritative row for a key.
// LastValue never decreases and is only mutated inside the consuming transaction.
type SequenceCounter struct {
	SequenceKey
	Prefix    string `db:"prefix"`
	LastValue int64  `db:"last_value"`
}
