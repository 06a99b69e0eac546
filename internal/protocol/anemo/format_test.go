package anemo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrimaryUnit(t *testing.T) {
	tests := []struct {
		name string
		b, c byte
		want string
	}{
		{"m/s", 0x81, 0x00, "m/s"},
		{"km/h", 0x82, 0x00, "km/h"},
		{"无单位位", 0x80, 0x00, ""},
		{"FLOW CMM", 0x1F, 0x00, "CMM"},
		{"FLOW CFM", 0x00, 0x08, "CFM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrimaryUnit(DecodeSettings(tt.b, tt.c)))
		})
	}
}

func TestSecondaryUnit(t *testing.T) {
	assert.Equal(t, "deg-C", SecondaryUnit(DecodeSettings(0x20, 0)))
	assert.Equal(t, "deg-F", SecondaryUnit(DecodeSettings(0x00, 0)))
}

func TestRender(t *testing.T) {
	s := DecodeSettings(0xA1, 0x80)

	out := Render(s, 6)
	assert.Len(t, out, FieldCount*7-1)
	parts := strings.Split(out, ",")
	assert.Len(t, parts, FieldCount)
	for _, p := range parts {
		assert.Len(t, p, 6)
	}
	assert.Equal(t, "   VEL", parts[0])
	assert.Equal(t, "     C", parts[1])
	assert.Equal(t, "   m/s", parts[6])
	assert.Equal(t, "   max", parts[7])

	assert.Equal(t, "VEL,C, , , , ,m/s,max, , , , , ", Render(s, 1))
	assert.Equal(t, "VEL,C,,,,,m/s,max,,,,,", Render(s, 0))
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1000, "  1000"},
		{0.5, "   0.5"},
		{12.34, " 12.34"},
		{0, "     0"},
		{65535, " 65535"},
		{1234567, "1.23457e+06"},
		{0.00001, " 1e-05"},
		{25.600000000000001, "  25.6"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}
