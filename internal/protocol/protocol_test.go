package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageFormats(t *testing.T) {
	assert.Equal(t, "REG_SOURCE system", RegSource("system"))
	assert.Equal(t, "REG_SENSOR 42 TEMPERATURE cpu", RegSensor(42, "TEMPERATURE", "cpu"))
	assert.Equal(t, "UNREG_SENSOR 42 7", UnregSensor(42, 7))
	assert.Equal(t, "UNREG_SOURCE 42", UnregSource(42))
}

func TestDataTwoDecimals(t *testing.T) {
	cases := map[float64]string{
		36.5:    "DATA 1 2 36.50",
		55.1234: "DATA 1 2 55.12",
		0:       "DATA 1 2 0.00",
		-4.5:    "DATA 1 2 -4.50",
		48.999:  "DATA 1 2 49.00",
	}
	for value, want := range cases {
		assert.Equal(t, want, Data(1, 2, value))
	}
}

func TestVerbOf(t *testing.T) {
	assert.Equal(t, VerbData, VerbOf(Data(1, 2, 3)))
	assert.Equal(t, VerbUnregSource, VerbOf(UnregSource(1)))
	assert.Equal(t, Verb(""), VerbOf(""))
}

func TestValidToken(t *testing.T) {
	assert.True(t, ValidToken("system"))
	assert.True(t, ValidToken("TEMPERATURE"))
	assert.False(t, ValidToken(""))
	assert.False(t, ValidToken("two words"))
	assert.False(t, ValidToken("tab\tbed"))
}

func TestParseID(t *testing.T) {
	cases := []struct {
		in   string
		id   int
		want bool
	}{
		{"42", 42, true},
		{"7\n", 7, true},
		{"  13 ", 13, true},
		{"-1", -1, true},
		{"+5", 5, true},
		{"0", 0, true},
		// 以下为协议缺陷：无效应答被当作 0 或数字前缀
		{"", 0, false},
		{"abc", 0, false},
		{"12abc", 12, false},
		{"-", 0, false},
		{"99999999999999999999999", 0, false},
	}
	for _, tc := range cases {
		id, ok := ParseID(tc.in)
		assert.Equal(t, tc.id, id, "input %q", tc.in)
		assert.Equal(t, tc.want, ok, "input %q", tc.in)
	}
}

func TestParseIDStrict(t *testing.T) {
	id, err := ParseIDStrict("42")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	_, err = ParseIDStrict("")
	require.ErrorIs(t, err, ErrMalformedResponse)

	_, err = ParseIDStrict("12abc")
	require.ErrorIs(t, err, ErrMalformedResponse)
}
