// Package loader reads compendium fixtures from YAML, CUE or JSON files and
// imports them. Every fixture is validated against an embedded CUE schema
// before anything is decoded.
package loader

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/Thomvis/Construct-sub002/internal/compendium"
)

//go:embed schema.cue
var schemaSource string

// Formats.
const (
	FormatYAML = "yaml"
	FormatCUE  = "cue"
	FormatJSON = "json"
)

// Fixture is a validated set of resources to import.
type Fixture struct {
	Name      string                      `json:"name"`
	Version   string                      `json:"version"`
	Document  string                      `json:"document"`
	Realms    []compendium.Realm          `json:"realms"`
	Documents []compendium.SourceDocument `json:"documents"`
	Entries   []FixtureEntry              `json:"entries"`

	// Format is the format the fixture was read from.
	Format string `json:"-"`
}

// FixtureEntry is one item. Item holds the item's JSON, already validated
// for Type.
type FixtureEntry struct {
	Type compendium.ItemType `json:"type"`
	Item json.RawMessage     `json:"item"`
}

// Load reads and validates the fixture at path. The format is chosen by
// extension: .yaml, .yml, .cue or .json.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, format, filepath.Base(path))
}

func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported fixture extension %q", filepath.Ext(path))
}

// Parse validates data in the given format. name is used in error
// positions.
func Parse(data []byte, format, name string) (*Fixture, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile fixture schema: %w", err)
	}

	var v cue.Value
	switch format {
	case FormatYAML:
		var doc any
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		v = ctx.Encode(doc)
	case FormatCUE, FormatJSON:
		// JSON is valid CUE
		v = ctx.CompileBytes(data, cue.Filename(name))
	default:
		return nil, fmt.Errorf("unsupported fixture format %q", format)
	}
	if err := v.Err(); err != nil {
		return nil, validationError(err)
	}

	v = schema.LookupPath(cue.ParsePath("#Fixture")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, validationError(err)
	}

	raw, err := v.MarshalJSON()
	if err != nil {
		return nil, validationError(err)
	}
	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	f.Format = format
	return &f, nil
}
