package dirscrape_test

import (
	"encoding/json"
	"testing"

	"github.com/fwojciec/dirscrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("preserves field order from the document", func(t *testing.T) {
		t.Parallel()

		data := `{"name":"company name","location":"city or region","website_url":"company homepage"}`

		var schema dirscrape.Schema
		require.NoError(t, json.Unmarshal([]byte(data), &schema))

		assert.Equal(t, []string{"name", "location", "website_url"}, schema.FieldNames())
		assert.Equal(t, "city or region", schema[1].Description)
	})

	t.Run("rejects non-object documents", func(t *testing.T) {
		t.Parallel()

		var schema dirscrape.Schema
		err := json.Unmarshal([]byte(`["name"]`), &schema)

		assert.Error(t, err)
	})

	t.Run("rejects non-string descriptions", func(t *testing.T) {
		t.Parallel()

		var schema dirscrape.Schema
		err := json.Unmarshal([]byte(`{"name": 42}`), &schema)

		assert.Error(t, err)
	})
}

func TestSchema_MarshalJSON(t *testing.T) {
	t.Parallel()

	schema := dirscrape.Schema{
		{Name: "name", Description: "company name"},
		{Name: "email", Description: "contact email"},
	}

	data, err := json.Marshal(schema)
	require.NoError(t, err)

	assert.Equal(t, `{"name":"company name","email":"contact email"}`, string(data))
}

func TestSchema_Validate(t *testing.T) {
	t.Parallel()

	t.Run("accepts a valid schema", func(t *testing.T) {
		t.Parallel()

		schema := dirscrape.Schema{{Name: "name", Description: "company name"}}

		assert.NoError(t, schema.Validate())
	})

	t.Run("rejects an empty schema", func(t *testing.T) {
		t.Parallel()

		err := dirscrape.Schema{}.Validate()

		assert.Equal(t, dirscrape.EINVALID, dirscrape.ErrorCode(err))
	})

	t.Run("rejects empty field names", func(t *testing.T) {
		t.Parallel()

		schema := dirscrape.Schema{{Name: "", Description: "missing"}}

		err := schema.Validate()

		assert.Equal(t, dirscrape.EINVALID, dirscrape.ErrorCode(err))
	})

	t.Run("rejects duplicate field names", func(t *testing.T) {
		t.Parallel()

		schema := dirscrape.Schema{
			{Name: "name", Description: "first"},
			{Name: "name", Description: "second"},
		}

		err := schema.Validate()

		assert.Equal(t, dirscrape.EINVALID, dirscrape.ErrorCode(err))
		assert.Contains(t, dirscrape.ErrorMessage(err), "duplicate")
	})
}

func TestParseSchema(t *testing.T) {
	t.Parallel()

	t.Run("parses and validates", func(t *testing.T) {
		t.Parallel()

		schema, err := dirscrape.ParseSchema([]byte(`{"name":"company name"}`))
		require.NoError(t, err)

		assert.Equal(t, []string{"name"}, schema.FieldNames())
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()

		_, err := dirscrape.ParseSchema([]byte(`{`))

		assert.Equal(t, dirscrape.EINVALID, dirscrape.ErrorCode(err))
	})

	t.Run("rejects empty objects", func(t *testing.T) {
		t.Parallel()

		_, err := dirscrape.ParseSchema([]byte(`{}`))

		assert.Equal(t, dirscrape.EINVALID, dirscrape.ErrorCode(err))
	})
}
