package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/numerator"
)

// NumberingFile is the YAML layout of numbering overrides:
//
//	documents:
//	  - type: PI
//	    scope: year
//	    width: 6
type NumberingFile struct {
	Documents []numerator.Config `yaml:"documents"`
}

// LoadNumberingFile reads overrides from path and merges them over the
// default table.
func LoadNumberingFile(path string) (numerator.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read numbering file: %w", err)
	}
	return ParseNumbering(bytes.NewReader(data))
}

// ParseNumbering decodes overrides from r. Unknown keys are rejected so a
// typo cannot silently fall back to a default format.
func ParseNumbering(r io.Reader) (numerator.Table, error) {
	var file NumberingFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode numbering file: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Documents))
	for _, c := range file.Documents {
		if _, dup := seen[c.DocumentType]; dup {
			return nil, fmt.Errorf("numbering file: duplicate document type %s", c.DocumentType)
		}
		seen[c.DocumentType] = struct{}{}
	}

	table, err := numerator.DefaultTable().Merge(file.Documents...)
	if err != nil {
		return nil, fmt.Errorf("numbering file: %w", err)
	}
	return table, nil
}
