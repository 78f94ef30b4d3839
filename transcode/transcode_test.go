package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForceArrayCardinality(t *testing.T) {
	schema := NewSchema("item")

	tests := []struct {
		name     string
		doc      string
		expected int
	}{
		{
			name:     "zero occurrences",
			doc:      `<root><other>x</other></root>`,
			expected: 0,
		},
		{
			name:     "one occurrence",
			doc:      `<root><item>a</item></root>`,
			expected: 1,
		},
		{
			name:     "many occurrences",
			doc:      `<root><item>a</item><item>b</item><item>c</item></root>`,
			expected: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := Decode([]byte(tt.doc), schema)
			require.NoError(t, err)

			root, ok := Field(value, "root")
			require.True(t, ok)
			assert.Len(t, ArrayField(root, "item"), tt.expected)
		})
	}
}

func TestRepeatedSiblingsCollapseToLastSeen(t *testing.T) {
	// tags outside the force-array set keep only the last sibling; callers
	// needing all occurrences must declare the tag in the schema
	doc := `<root><entry>first</entry><entry>second</entry><entry>third</entry></root>`

	value, err := Decode([]byte(doc), NewSchema())
	require.NoError(t, err)

	root, _ := Field(value, "root")
	entry, ok := Field(root, "entry")
	require.True(t, ok)
	assert.Equal(t, "third", entry)
}

func TestDecodeIsPure(t *testing.T) {
	doc := []byte(`<a x="1"><b>one</b><b>two</b><c><d>deep</d></c></a>`)
	schema := NewSchema("b")

	first, err := Decode(doc, schema)
	require.NoError(t, err)
	second, err := Decode(doc, schema)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	firstJSON, err := EmitJSON(first)
	require.NoError(t, err)
	secondJSON, err := EmitJSON(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestAttributesUnderReservedKey(t *testing.T) {
	doc := `<obj type="VirtualMachine">vm-101</obj>`

	value, err := Decode([]byte(doc), nil)
	require.NoError(t, err)

	obj, ok := Field(value, "obj")
	require.True(t, ok)

	m, ok := obj.(map[string]any)
	require.True(t, ok, "attributed leaf decodes to a map")
	attrs, ok := m[AttrsKey].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VirtualMachine", attrs["type"])
	assert.Equal(t, "vm-101", m[TextKey])

	ref, err := Ref(obj)
	require.NoError(t, err)
	assert.Equal(t, "VirtualMachine", ref.Kind)
	assert.Equal(t, "vm-101", ref.Value)
}

func TestLeafWithoutAttributesStaysString(t *testing.T) {
	value, err := Decode([]byte(`<name>web-01</name>`), nil)
	require.NoError(t, err)

	name, _ := Field(value, "name")
	assert.Equal(t, "web-01", name)
	assert.Equal(t, "web-01", Text(name))
}

func TestEmitJSONEscaping(t *testing.T) {
	doc := "<leaf>tab\there \r\n back\\slash \"quoted\"</leaf>"

	value, err := Decode([]byte(doc), nil)
	require.NoError(t, err)

	out, err := EmitJSON(value)
	require.NoError(t, err)

	assert.Contains(t, out, `\t`)
	assert.Contains(t, out, `\r`)
	assert.Contains(t, out, `\n`)
	assert.Contains(t, out, `\\slash`)
	assert.Contains(t, out, `\"quoted\"`)
}

func TestUnwrapResponse(t *testing.T) {
	doc := `<Envelope><Body><QueryPerfCounterResponse><returnval><key>2</key></returnval></QueryPerfCounterResponse></Body></Envelope>`

	value, err := Decode([]byte(doc), NewSchema("returnval"))
	require.NoError(t, err)

	resp := Unwrap(value, "QueryPerfCounter")
	assert.Len(t, ArrayField(resp, "returnval"), 1)
}

func TestUnwrapMissingResponsePassesBodyThrough(t *testing.T) {
	doc := `<Envelope><Body><Fault><faultstring>boom</faultstring></Fault></Body></Envelope>`

	value, err := Decode([]byte(doc), nil)
	require.NoError(t, err)

	body := Unwrap(value, "QueryPerfCounter")
	fault, ok := Field(body, "Fault")
	require.True(t, ok, "whole body passes through when the response element is absent")
	faultstring, _ := Field(fault, "faultstring")
	assert.Equal(t, "boom", faultstring)
}

func TestDecodeRejectsMalformedDocument(t *testing.T) {
	_, err := Decode([]byte(`<open><unclosed>`), nil)
	assert.Error(t, err)

	_, err = Decode([]byte(``), nil)
	assert.Error(t, err)
}

func TestSchemaWithExtendsCopy(t *testing.T) {
	base := NewSchema("a")
	extended := base.With("b")

	assert.True(t, extended.Array("a"))
	assert.True(t, extended.Array("b"))
	assert.False(t, base.Array("b"), "With must not mutate the original schema")
}

func TestNamespacePrefixesAreStripped(t *testing.T) {
	doc := `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body><ok>1</ok></soapenv:Body></soapenv:Envelope>`

	value, err := Decode([]byte(doc), nil)
	require.NoError(t, err)

	env, ok := Field(value, "Envelope")
	require.True(t, ok)
	body, ok := Field(env, "Body")
	require.True(t, ok)
	okVal, _ := Field(body, "ok")
	assert.Equal(t, "1", okVal)
}
