// Package catalog holds the CID reference table used to resolve and
// classify health-declaration descriptions.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrDuplicateCode is returned when two entries share the same code.
	ErrDuplicateCode = errors.New("duplicate catalog code")
	// ErrNotLoaded is returned by Validate on a catalog that was not built by a constructor.
	ErrNotLoaded = errors.New("catalog not loaded")
)

//go:embed catalog.yaml
var embedded []byte

// Entry is a single catalog row.
type Entry struct {
	Code           string `yaml:"codigo"`
	Description    string `yaml:"descricao"`
	Classification string `yaml:"classificacao,omitempty"`
	Justification  string `yaml:"justificativa,omitempty"`
}

// Classified reports whether the entry carries a classification label.
func (e Entry) Classified() bool {
	return e.Classification != ""
}

// Catalog is an immutable code -> entry table. It is safe for concurrent use.
type Catalog struct {
	entries []Entry
	byCode  map[string]int
}

// NormalizeCode trims and upper-cases a code so catalog and record codes compare equal.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// New builds a catalog from entries, preserving their order.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		byCode:  make(map[string]int, len(entries)),
	}

	for i, e := range entries {
		e.Code = NormalizeCode(e.Code)
		e.Description = strings.TrimSpace(e.Description)
		e.Classification = strings.TrimSpace(e.Classification)
		e.Justification = strings.TrimSpace(e.Justification)

		if e.Code == "" {
			return nil, fmt.Errorf("entry %d: code cannot be empty", i+1)
		}
		if e.Description == "" {
			return nil, fmt.Errorf("entry %d (%s): description cannot be empty", i+1, e.Code)
		}
		if _, exists := c.byCode[e.Code]; exists {
			return nil, fmt.Errorf("entry %d: %w: %s", i+1, ErrDuplicateCode, e.Code)
		}

		c.byCode[e.Code] = len(c.entries)
		c.entries = append(c.entries, e)
	}

	return c, nil
}

// Load reads a YAML list of {codigo, descricao, classificacao, justificativa}.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	return New(entries)
}

// LoadFile loads a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(embedded))
}

// Lookup finds the entry for code. The code is normalized before the lookup.
func (c *Catalog) Lookup(code string) (Entry, bool) {
	if c == nil || c.byCode == nil {
		return Entry{}, false
	}
	i, ok := c.byCode[NormalizeCode(code)]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Entries returns a copy of the entries in catalog order.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Validate reports whether the catalog is usable for lookups.
func (c *Catalog) Validate() error {
	if c == nil || c.byCode == nil {
		return ErrNotLoaded
	}
	if len(c.byCode) != len(c.entries) {
		return fmt.Errorf("catalog index out of sync: %d codes for %d entries", len(c.byCode), len(c.entries))
	}
	return nil
}

// Classifications returns the distinct classification labels in catalog order.
func (c *Catalog) Classifications() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]bool)
	var labels []string
	for _, e := range c.entries {
		if e.Classification == "" || seen[e.Classification] {
			continue
		}
		seen[e.Classification] = true
		labels = append(labels, e.Classification)
	}
	return labels
}
