package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	embedded "github.com/jonathan/apply-assistant/schemas"
)

const personSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {"name": {"type": "string"}, "age": {"type": "integer"}}
}`

func TestValidateJSONString_Valid(t *testing.T) {
	err := ValidateJSONString(personSchema, `{"name": "Jane", "age": 30}`)
	assert.NoError(t, err)
}

func TestValidateJSONString_MissingField(t *testing.T) {
	err := ValidateJSONString(personSchema, `{"age": 30}`)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
	assert.Contains(t, validationErr.Error(), "validation failed")
}

func TestValidateJSONString_WrongType(t *testing.T) {
	err := ValidateJSONString(personSchema, `{"name": "Jane", "age": "thirty"}`)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "age", validationErr.Errors[0].Field)
}

func TestValidateJSONString_BrokenSchema(t *testing.T) {
	err := ValidateJSONString(`{ not json`, `{}`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidateEmbedded_FormStructure(t *testing.T) {
	ok := []byte(`{"fields":[{"label":"Email","type":"email","required":true}],"actions":[]}`)
	assert.NoError(t, ValidateEmbedded(embedded.FormStructure, ok))

	missingLabel := []byte(`{"fields":[{"type":"email","required":true}],"actions":[]}`)
	assert.Error(t, ValidateEmbedded(embedded.FormStructure, missingLabel))
}

func TestValidateEmbedded_AtsScoreRange(t *testing.T) {
	assert.NoError(t, ValidateEmbedded(embedded.AtsScore, []byte(`{"score":30,"recommendation":"poor"}`)))
	assert.Error(t, ValidateEmbedded(embedded.AtsScore, []byte(`{"score":130,"recommendation":"high"}`)))
	assert.Error(t, ValidateEmbedded(embedded.AtsScore, []byte(`{"score":50,"recommendation":"maybe"}`)))
}

func TestValidateEmbedded_UnknownSchema(t *testing.T) {
	err := ValidateEmbedded("nope.schema.json", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedded schema not found")
}
