package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks a decoder from the file extension. Unknown extensions are
// treated as JSON, which yaml.v3 would also accept but with looser typing.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	desc, err := Decode(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return desc, nil
}

func Decode(data []byte, format Format) (*Descriptor, error) {
	desc := &Descriptor{}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, desc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, desc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown scene format: %s", format)
	}
	return desc, nil
}

func Save(path string, desc *Descriptor) error {
	var (
		data []byte
		err  error
	)
	switch FormatFor(path) {
	case FormatYAML:
		data, err = yaml.Marshal(desc)
	default:
		data, err = json.MarshalIndent(desc, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
