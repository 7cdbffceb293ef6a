package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-assistant/internal/types"
)

func TestDecode_FlatAndNestedAreEqual(t *testing.T) {
	fieldLists := []string{
		`[]`,
		`[{"label":"Email","type":"email","required":true}]`,
		`[{"label":"Name","type":"text","required":true,"value":"Jane"},{"label":"Country","type":"select","required":false,"options":["US","CA"]}]`,
	}

	for _, f := range fieldLists {
		t.Run(f, func(t *testing.T) {
			flat, err := Decode([]byte(`{"fields":` + f + `}`))
			require.NoError(t, err)

			nested, err := Decode([]byte(`{"form_structure":{"fields":` + f + `}}`))
			require.NoError(t, err)

			assert.Equal(t, flat, nested)
		})
	}
}

func TestDecodePayload_Shapes(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		shape  Shape
		fields int
	}{
		{"flat", `{"fields":[{"label":"Email","type":"email","required":true}],"actions":[]}`, ShapeFlat, 1},
		{"nested", `{"form_structure":{"fields":[{"label":"Email","type":"email","required":true}]},"url":"https://ex.com"}`, ShapeNested, 1},
		{"nested wins over flat", `{"fields":[],"form_structure":{"fields":[{"label":"A","type":"text","required":false}]}}`, ShapeNested, 1},
		{"null nested falls back to flat", `{"form_structure":null,"fields":[{"label":"A","type":"text","required":false}]}`, ShapeFlat, 1},
		{"empty object", `{}`, ShapeEmpty, 0},
		{"null body", `null`, ShapeEmpty, 0},
		{"blank body", `  `, ShapeEmpty, 0},
		{"nested without fields", `{"form_structure":{}}`, ShapeNested, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodePayload([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.shape, p.Shape)
			assert.Len(t, p.Structure.Fields, tt.fields)
			assert.NotNil(t, p.Structure.Fields, "fields must never be nil")
			assert.NotNil(t, p.Structure.Actions, "actions must never be nil")
		})
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode([]byte(`[1,2,3]`))
	require.Error(t, err)

	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestNormalize_Idempotent(t *testing.T) {
	once := Normalize(types.FormStructure{})
	twice := Normalize(once)
	assert.Equal(t, once, twice)
	assert.NotNil(t, twice.Fields)
	assert.Empty(t, twice.Fields)
}

func TestNormalize_CopiesSlices(t *testing.T) {
	src := types.FormStructure{Fields: []types.Field{{Label: "Email"}}}
	out := Normalize(src)
	out.Fields[0].Label = "changed"
	assert.Equal(t, "Email", src.Fields[0].Label)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]byte(`{"form_structure":{"fields":[{"label":"Email","type":"email","required":true}],"actions":[{"type":"click","target":"#submit"}]}}`)))
	assert.Error(t, Validate([]byte(`{"actions":[{"type":"click"}]}`)))
}

func TestDuplicateLabels(t *testing.T) {
	fs := types.FormStructure{Fields: []types.Field{
		{Label: "Name"}, {Label: "Email"}, {Label: "Name"}, {Label: "Name"}, {Label: "Phone"}, {Label: "Email"},
	}}
	assert.Equal(t, []string{"Name", "Email"}, DuplicateLabels(fs))
	assert.Nil(t, DuplicateLabels(types.FormStructure{}))
}

func TestShape_String(t *testing.T) {
	assert.Equal(t, "flat", ShapeFlat.String())
	assert.Equal(t, "nested", ShapeNested.String())
	assert.Equal(t, "empty", ShapeEmpty.String())
}
