package models

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the on-disk serialization of a resource file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingModel      = errors.New("missing model discriminator")
)

// FormatForPath picks the serialization from a file name's extension.
func FormatForPath(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

type discriminator struct {
	Model Kind `json:"model" yaml:"model"`
}

// Marshal encodes r in the given format. YAML output is block style with a
// two space indent; JSON output is pretty printed.
func Marshal(r Resource, format Format) ([]byte, error) {
	if r == nil {
		return nil, errors.New("cannot marshal nil resource")
	}
	Normalize(r)

	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return nil, fmt.Errorf("encode %s as yaml: %w", Describe(r), err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode %s as yaml: %w", Describe(r), err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		data, err := jsonMarshalIndent(r)
		if err != nil {
			return nil, fmt.Errorf("encode %s as json: %w", Describe(r), err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Unmarshal decodes a resource, using the "model" field to pick the concrete type.
func Unmarshal(data []byte, format Format) (Resource, error) {
	var disc discriminator
	var decode func(any) error

	switch format {
	case FormatYAML:
		decode = func(v any) error { return yaml.Unmarshal(data, v) }
	case FormatJSON:
		decode = func(v any) error { return jsonUnmarshal(data, v) }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := decode(&disc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	if disc.Model == "" {
		return nil, ErrMissingModel
	}

	r, err := NewResource(disc.Model)
	if err != nil {
		return nil, err
	}
	if err := decode(r); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", format, disc.Model, err)
	}
	if r.GetID() == "" {
		return nil, fmt.Errorf("decode %s %s: missing id", format, disc.Model)
	}

	Normalize(r)
	return r, nil
}

// MarshalPayload encodes r compactly for storage in a database column.
func MarshalPayload(r Resource) ([]byte, error) {
	Normalize(r)
	return jsonMarshal(r)
}

// UnmarshalPayload is the inverse of MarshalPayload.
func UnmarshalPayload(kind Kind, data []byte) (Resource, error) {
	r, err := NewResource(kind)
	if err != nil {
		return nil, err
	}
	if err := jsonUnmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	Normalize(r)
	return r, nil
}
