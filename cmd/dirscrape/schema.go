package main

import (
	"os"
	"strings"

	"github.com/fwojciec/dirscrape"
)

// parseSchemaArgs builds a schema from repeatable name:description pairs,
// inline JSON, or a JSON file. Exactly one form must be supplied. The JSON
// forms are a flat object mapping field names to descriptions.
func parseSchemaArgs(pairs []string, schemaJSON, schemaFile string) (dirscrape.Schema, error) {
	forms := 0
	if len(pairs) > 0 {
		forms++
	}
	if schemaJSON != "" {
		forms++
	}
	if schemaFile != "" {
		forms++
	}
	if forms > 1 {
		return nil, dirscrape.Errorf(dirscrape.EINVALID, "use only one of -s, --schema-json, or --schema-file")
	}

	switch {
	case schemaFile != "":
		data, err := os.ReadFile(schemaFile)
		if err != nil {
			return nil, dirscrape.Errorf(dirscrape.EINVALID, "reading schema file: %v", err)
		}
		return dirscrape.ParseSchema(data)
	case schemaJSON != "":
		return dirscrape.ParseSchema([]byte(schemaJSON))
	case len(pairs) == 0:
		return nil, dirscrape.Errorf(dirscrape.EINVALID, "schema required: use -s name:description, --schema-json, or --schema-file")
	}

	schema := make(dirscrape.Schema, 0, len(pairs))
	for _, pair := range pairs {
		name, description, _ := strings.Cut(pair, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, dirscrape.Errorf(dirscrape.EINVALID, "schema field %q must be name:description", pair)
		}
		schema = append(schema, dirscrape.Field{
			Name:        name,
			Description: strings.TrimSpace(description),
		})
	}

	if err := schema.Validate(); err != nil {
		return nil, err
	}

	return schema, nil
}
