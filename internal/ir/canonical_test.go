package ir

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalScalars(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"empty string", IRString(""), `""`},
		{"int", IRInt(42), "42"},
		{"negative int", IRInt(-100), "-100"},
		{"max int64", IRInt(9223372036854775807), "9223372036854775807"},
		{"bool", IRBool(false), "false"},
		{"slice", []any{int64(1), "two", true}, `[1,"two",true]`},
		{"empty object", map[string]any{}, "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	input := map[string]any{
		"z": 1,
		"a": map[string]any{"y": "b", "x": "a"},
		"m": []any{map[string]any{"d": 1, "c": 2}},
	}

	result, err := MarshalCanonical(input)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"x":"a","y":"b"},"m":[{"c":2,"d":1}],"z":1}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+1F600 encodes as the surrogate pair D83D DE00, which sorts before
	// U+FB01 in UTF-16 even though its UTF-8 bytes sort after.
	input := map[string]any{"\ufb01": 2, "\U0001F600": 1}

	result, err := MarshalCanonical(input)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":1,\"\ufb01\":2}", string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(map[string]any{"cmd": "a < b && c > d"})
	require.NoError(t, err)
	assert.Equal(t, `{"cmd":"a < b && c > d"}`, string(result))
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"quote", `say "hi"`, `"say \"hi\""`},
		{"backslash", `a\b`, `"a\\b"`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"control", "a\x01b", `"a\u0001b"`},
		{"line separator", "a\u2028b", "\"a\u2028b\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	decomposed := "cafe\u0301"
	composed := "caf\u00e9"

	a, err := MarshalCanonical(map[string]any{decomposed: decomposed})
	require.NoError(t, err)
	b, err := MarshalCanonical(map[string]any{composed: composed})
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonicalDuplicateKeyAfterNormalization(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"cafe\u0301": 1, "caf\u00e9": 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestMarshalCanonicalRejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"delay": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$.delay")
}

func TestMarshalCanonicalNullHandling(t *testing.T) {
	result, err := MarshalCanonical(map[string]any{"a": 1, "gone": nil})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(result), "null members are dropped")

	_, err = MarshalCanonical([]any{1, nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$[1]")

	_, err = MarshalCanonical(nil)
	require.Error(t, err)
}

func TestMarshalCanonicalProductionSet(t *testing.T) {
	empty, err := MarshalCanonical(&ProductionSet{Description: "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"description":"x"}`, string(empty), "nil productions address like no productions")

	data, err := MarshalCanonical(sampleSet("seq:f18"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), " ")
	assert.Contains(t, string(data), `"conditions":[{"name":"omni.seq.f18","value":"seq:f18"}]`)

	again, err := MarshalCanonical(sampleSet("seq:f18"))
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func FuzzMarshalCanonicalIdempotent(f *testing.F) {
	f.Add("hello", int64(1))
	f.Add("a\u2028b", int64(-7))
	f.Add("cafe\u0301", int64(0))

	f.Fuzz(func(t *testing.T, s string, n int64) {
		first, err := MarshalCanonical(map[string]any{"s": s, "n": n})
		if err != nil {
			t.Skip()
		}
		dec := json.NewDecoder(bytes.NewReader(first))
		dec.UseNumber()
		var decoded map[string]any
		if err := dec.Decode(&decoded); err != nil {
			t.Fatalf("canonical output is not JSON: %v", err)
		}
		second, err := MarshalCanonical(decoded)
		if err != nil {
			t.Fatalf("re-marshal failed: %v", err)
		}
		if string(first) != string(second) {
			t.Fatalf("not idempotent:\n%s\n%s", first, second)
		}
	})
}
