package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor returns the format for a file path's extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// DecodeJSON reads a JSON document.
func DecodeJSON(r io.Reader) (Output, error) {
	var out Output
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return Output{}, fmt.Errorf("decode json document: %w", err)
	}
	return out, nil
}

// EncodeJSON writes out as indented JSON.
func EncodeJSON(w io.Writer, out Output) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode json document: %w", err)
	}
	return nil
}

// DecodeYAML reads a YAML document.
func DecodeYAML(r io.Reader) (Output, error) {
	var out Output
	if err := yaml.NewDecoder(r).Decode(&out); err != nil {
		return Output{}, fmt.Errorf("decode yaml document: %w", err)
	}
	for i := range out.Blocks {
		out.Blocks[i].Data = stringKeys(out.Blocks[i].Data)
	}
	return out, nil
}

// EncodeYAML writes out as YAML.
func EncodeYAML(w io.Writer, out Output) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode yaml document: %w", err)
	}
	return enc.Close()
}

// Decode reads a document in format.
func Decode(r io.Reader, format Format) (Output, error) {
	switch format {
	case FormatJSON:
		return DecodeJSON(r)
	case FormatYAML:
		return DecodeYAML(r)
	default:
		return Output{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Encode writes a document in format.
func Encode(w io.Writer, out Output, format Format) error {
	switch format {
	case FormatJSON:
		return EncodeJSON(w, out)
	case FormatYAML:
		return EncodeYAML(w, out)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ReadFile loads and validates the document at path.
func ReadFile(path string) (Output, error) {
	format, err := FormatFor(path)
	if err != nil {
		return Output{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Output{}, err
	}
	out, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return Output{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := Validate(out); err != nil {
		return Output{}, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// WriteFile saves out to path in the format implied by its extension. The
// file is written to a temporary sibling and renamed into place.
func WriteFile(path string, out Output) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, out, format); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".blockstorm-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// stringKeys converts nested map[interface{}]interface{} values, which
// yaml produces for maps with non-string keys, into string-keyed maps.
func stringKeys(d map[string]any) map[string]any {
	for k, v := range d {
		d[k] = convertValue(v)
	}
	return d
}

func convertValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return stringKeys(val)
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = convertValue(item)
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = convertValue(item)
		}
		return val
	default:
		return v
	}
}
