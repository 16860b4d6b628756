package dirscrape

import (
	"bytes"
	"encoding/json"
)

// Field describes a single value to collect for every record.
// The description tells the selector inference what the field means
// (e.g. "company name", "contact email address").
type Field struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Schema is the ordered list of fields to extract from a directory.
// Field order is preserved from the source JSON and determines the
// field order of every extracted record.
type Schema []Field

// Validate returns an error if the schema contains invalid fields.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return Errorf(EINVALID, "schema requires at least one field")
	}
	seen := make(map[string]struct{}, len(s))
	for _, f := range s {
		if f.Name == "" {
			return Errorf(EINVALID, "schema field name required")
		}
		if _, ok := seen[f.Name]; ok {
			return Errorf(EINVALID, "duplicate schema field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// FieldNames returns the field names in schema order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// MarshalJSON encodes the schema as a flat JSON object mapping field
// names to descriptions, preserving field order.
func (s Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		desc, err := json.Marshal(f.Description)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(desc)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object mapping field names to
// descriptions. Key order in the document becomes field order, which
// encoding/json's map decoding would otherwise destroy.
func (s *Schema) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Errorf(EINVALID, "schema must be a JSON object")
	}

	var fields []Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return Errorf(EINVALID, "schema field name must be a string")
		}
		var desc string
		if err := dec.Decode(&desc); err != nil {
			return Errorf(EINVALID, "schema description for %q must be a string", name)
		}
		fields = append(fields, Field{Name: name, Description: desc})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = fields
	return nil
}

// ParseSchema decodes and validates a schema from JSON.
func ParseSchema(data []byte) (Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, Errorf(EINVALID, "invalid schema JSON: %s", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
