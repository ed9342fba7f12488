// Package numerator provides domain contracts for document auto-numbering.
package numerator

import (
	"fmt"
	"regexp"
	"time"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
)

// Scope is the period a counter resets on.
type Scope string

const (
	// ScopeYear keeps one counter per fiscal year: JV-2026-00001.
	ScopeYear Scope = "year"
	// ScopeMonth keeps one counter per calendar month: PI-202602-0001.
	ScopeMonth Scope = "month"
	// ScopeDay keeps one counter per calendar day: POS-20260214-0001.
	ScopeDay Scope = "day"
)

var documentTypePattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,9}$`)

// Config fixes the format of one document family.
// Changing Scope or Width requires migrating stored numbers, since
// downstream code parses the suffix to continue a sequence.
type Config struct {
	DocumentType string `yaml:"type"`
	Scope        Scope  `yaml:"scope"`
	Width        int    `yaml:"width"`
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if !documentTypePattern.MatchString(c.DocumentType) {
		return fmt.Errorf("invalid document type %q", c.DocumentType)
	}
	switch c.Scope {
	case ScopeYear, ScopeMonth, ScopeDay:
	default:
		return fmt.Errorf("document type %s: invalid scope %q", c.DocumentType, c.Scope)
	}
	if c.Width < 1 || c.Width > 12 {
		return fmt.Errorf("document type %s: width %d out of range", c.DocumentType, c.Width)
	}
	return nil
}

// Period is the counter partition for date. Empty for year scope, since the
// fiscal year id already partitions those counters.
func (c Config) Period(date time.Time) string {
	switch c.Scope {
	case ScopeMonth:
		return date.Format("200601")
	case ScopeDay:
		return date.Format("20060102")
	default:
		return ""
	}
}

// Prefix builds "{DocType}-{FiscalYearLabel}-" or "{DocType}-{Period}-".
func (c Config) Prefix(fiscalYearLabel string, date time.Time) string {
	if c.Scope == ScopeYear {
		return c.DocumentType + "-" + fiscalYearLabel + "-"
	}
	return c.DocumentType + "-" + c.Period(date) + "-"
}

// Table maps document type to its numbering configuration.
type Table map[string]Config

// DefaultTable returns the formats already present in stored data.
func DefaultTable() Table {
	t := Table{}
	for _, c := range []Config{
		{DocumentType: "JV", Scope: ScopeYear, Width: 5},
		{DocumentType: "RJV", Scope: ScopeYear, Width: 5},
		{DocumentType: "CR", Scope: ScopeYear, Width: 5},
		{DocumentType: "CP", Scope: ScopeYear, Width: 5},
		{DocumentType: "CT", Scope: ScopeYear, Width: 5},
		{DocumentType: "IA", Scope: ScopeYear, Width: 5},
		{DocumentType: "PI", Scope: ScopeMonth, Width: 4},
		{DocumentType: "PR", Scope: ScopeMonth, Width: 4},
		{DocumentType: "SI", Scope: ScopeMonth, Width: 4},
		{DocumentType: "SR", Scope: ScopeMonth, Width: 4},
		{DocumentType: "POS", Scope: ScopeDay, Width: 4},
	} {
		t[c.DocumentType] = c
	}
	return t
}

// Merge returns a copy of t with overrides applied.
func (t Table) Merge(overrides ...Config) (Table, error) {
	out := make(Table, len(t)+len(overrides))
	for k, v := range t {
		out[k] = v
	}
	for _, c := range overrides {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		out[c.DocumentType] = c
	}
	return out, nil
}

// Lookup returns the configuration for documentType.
func (t Table) Lookup(documentType string) (Config, error) {
	c, ok := t[documentType]
	if !ok {
		return Config{}, apperror.NewValidation("unknown document type").
			WithDetail("document_type", documentType)
	}
	return c, nil
}
