package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/pedigree"
)

// Marshal encodes p as indented JSON.
func Marshal(p *pedigree.Pedigree) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(p, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a JSON document into a new pedigree.
func Unmarshal(data []byte) (*pedigree.Pedigree, error) {
	return Read(bytes.NewReader(data))
}

// Write encodes p as indented JSON to w.
func Write(p *pedigree.Pedigree, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromPedigree(p)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes a JSON document from r into a new pedigree.
func Read(r io.Reader) (*pedigree.Pedigree, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode")
	}
	return ToPedigree(doc)
}

// WriteFile writes p to path with 0644 permissions.
func WriteFile(p *pedigree.Pedigree, path string) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads a pedigree from path.
func ReadFile(path string) (*pedigree.Pedigree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Check returns an INVALID_DOCUMENT error listing every referential issue
// of p, or nil when there are none.
func Check(p *pedigree.Pedigree) error {
	issues := p.Validate()
	if len(issues) == 0 {
		return nil
	}
	lines := make([]string, len(issues))
	for i, issue := range issues {
		lines[i] = issue.String()
	}
	return errors.New(errors.ErrCodeInvalidDocument, "%d issue(s): %s", len(issues), strings.Join(lines, "; "))
}
