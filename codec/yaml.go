package codec

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// YAML is the default index codec, backed by gopkg.in/yaml.v3.
//
// Decoding is strict: unknown fields are rejected.
type YAML struct{}

// Marshal encodes the value to YAML with two-space indentation.
func (YAML) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes the YAML data into v.
func (YAML) Unmarshal(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(v)
}

// Name returns the unique name of the codec ("yaml").
func (YAML) Name() string { return "yaml" }
