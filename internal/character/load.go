package character

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/mwiater/manzai/internal/util"
)

//go:embed schema.json
var profileSchema []byte

// Format of a profile document on disk.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks a document format from a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads a profile from a JSON or YAML file, validates it against the
// profile schema and fills defaults.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read character %q: %w", path, err)
	}
	p, err := Parse(data, FormatForPath(path))
	if err != nil {
		return Profile{}, fmt.Errorf("character %q: %w", path, err)
	}
	return p, nil
}

// Parse decodes, validates and defaults a profile document.
func Parse(data []byte, format Format) (Profile, error) {
	doc, err := toJSON(data, format)
	if err != nil {
		return Profile{}, err
	}
	if err := validateSchema(doc); err != nil {
		return Profile{}, err
	}
	var p Profile
	if err := json.Unmarshal(doc, &p); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	if err := Validate(p); err != nil {
		return Profile{}, err
	}
	return WithDefaults(p), nil
}

// Save writes p to path, choosing JSON or YAML by extension.
func Save(path string, p Profile) error {
	var (
		data []byte
		err  error
	)
	switch FormatForPath(path) {
	case FormatYAML:
		data, err = yaml.Marshal(p)
	default:
		data, err = json.MarshalIndent(p, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return util.WriteFile(path, data)
}

// toJSON normalizes a YAML document into JSON so that both formats share
// one schema and one decoder.
func toJSON(data []byte, format Format) ([]byte, error) {
	if format != FormatYAML {
		if !json.Valid(data) {
			return nil, fmt.Errorf("decode profile: invalid JSON")
		}
		return data, nil
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return out, nil
}

func validateSchema(doc []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(profileSchema), gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	first := result.Errors()[0]
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return &ValidationError{Field: first.Field(), Reason: strings.Join(details, "; ")}
}
