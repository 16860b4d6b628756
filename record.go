package dirscrape

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

var emailRe = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)

// NormalizeValue cleans an extracted value according to the field's name.
// Whitespace is trimmed; fields whose name mentions "email" are narrowed to
// the first email-like token when one is present; fields whose name mentions
// "url" or "link" get an https:// prefix when they carry no scheme.
// The boolean is false when the value normalizes to null.
func NormalizeValue(field, value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}

	if strings.Contains(strings.ToLower(field), "email") {
		if m := emailRe.FindString(value); m != "" {
			value = m
		}
	}
	if IsURLField(field) {
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") && !strings.HasPrefix(value, "//") {
			value = "https://" + value
		}
	}
	return value, true
}

// IsURLField reports whether a field's name marks it as holding a URL.
// Values of such fields are resolved against the page's base URL during
// extraction and get a scheme during normalization.
func IsURLField(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "url") || strings.Contains(lower, "link")
}

// Record is one extracted directory entry: an ordered set of named fields
// where each value is either a string or null. Field order follows the
// schema that produced the record.
type Record struct {
	names  []string
	values map[string]string
}

// NewRecord returns a record with the given fields, all null.
func NewRecord(fieldNames []string) *Record {
	return &Record{
		names:  append([]string(nil), fieldNames...),
		values: make(map[string]string, len(fieldNames)),
	}
}

// Set normalizes and stores a field value. Values that normalize to null
// leave the field null. Fields not present in the record are appended.
func (r *Record) Set(name, value string) {
	if _, ok := r.values[name]; !ok && !r.has(name) {
		r.names = append(r.names, name)
	}
	if v, ok := NormalizeValue(name, value); ok {
		r.values[name] = v
	}
}

func (r *Record) has(name string) bool {
	for _, n := range r.names {
		if n == name {
			return true
		}
	}
	return false
}

// Get returns the field's value. The boolean is false when the field is
// null or not present.
func (r *Record) Get(name string) (string, bool) {
	v, ok := r.values[name]
	return v, ok
}

// FieldNames returns the record's field names in order.
func (r *Record) FieldNames() []string {
	return append([]string(nil), r.names...)
}

// NonNullCount returns the number of fields holding a value.
func (r *Record) NonNullCount() int {
	return len(r.values)
}

// Merge overlays the detail record's non-null fields onto this record and
// returns the result as a new record. Values from the detail record win;
// null detail fields never erase existing values. Fields only the detail
// record has are appended after this record's fields.
func (r *Record) Merge(detail *Record) *Record {
	merged := &Record{
		names:  append([]string(nil), r.names...),
		values: make(map[string]string, len(r.values)+len(detail.values)),
	}
	for name, v := range r.values {
		merged.values[name] = v
	}
	for _, name := range detail.names {
		if !merged.has(name) {
			merged.names = append(merged.names, name)
		}
		if v, ok := detail.values[name]; ok {
			merged.values[name] = v
		}
	}
	return merged
}

// Key returns a canonical identity for deduplication: the record's fields
// sorted by name with nulls kept distinct from empty strings. Two records
// with the same fields and values have the same key regardless of field
// order.
func (r *Record) Key() string {
	names := append([]string(nil), r.names...)
	sort.Strings(names)

	var sb strings.Builder
	for i, name := range names {
		if i > 0 {
			sb.WriteByte(0x1e)
		}
		sb.WriteString(name)
		if v, ok := r.values[name]; ok {
			sb.WriteByte(0x1f)
			sb.WriteString(v)
		} else {
			sb.WriteByte(0x00)
		}
	}
	return sb.String()
}

// Hash returns an xxhash of the record's canonical key, suitable for
// storage as a content hash.
func (r *Record) Hash() string {
	return fmt.Sprintf("%x", xxhash.Sum64String(r.Key()))
}

// MarshalJSON encodes the record as a JSON object in field order, with
// explicit nulls for absent values.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		if v, ok := r.values[name]; ok {
			val, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		} else {
			buf.WriteString("null")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into a record, preserving key order
// and treating JSON nulls as null fields.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Errorf(EINVALID, "record must be a JSON object")
	}

	r.names = nil
	r.values = make(map[string]string)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return Errorf(EINVALID, "record field name must be a string")
		}
		var val *string
		if err := dec.Decode(&val); err != nil {
			return Errorf(EINVALID, "record value for %q must be a string or null", name)
		}
		r.names = append(r.names, name)
		if val != nil {
			r.values[name] = *val
		}
	}
	_, err = dec.Token()
	return err
}

// DedupRecords removes exact duplicates, keeping the first occurrence of
// each canonical key and preserving order otherwise.
func DedupRecords(records []*Record) []*Record {
	seen := make(map[string]struct{}, len(records))
	out := records[:0:0]
	for _, rec := range records {
		key := rec.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}
