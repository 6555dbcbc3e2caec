package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversions(t *testing.T) {
	assert.Equal(t, "x", String("x"))
	assert.Equal(t, "", String(42))

	assert.Equal(t, 42, Int(int64(42)))
	assert.Equal(t, 42, Int(42))
	assert.Equal(t, 3, Int(3.9))
	assert.Equal(t, 0, Int("42"))

	assert.InDelta(t, 2.5, Float(2.5), 0.0001)
	assert.InDelta(t, 2.0, Float(int64(2)), 0.0001)
	assert.InDelta(t, 0.0, Float("2"), 0.0001)

	assert.True(t, Bool(true))
	assert.False(t, Bool("true"))

	assert.Equal(t, []string{"a", "b"}, StringSlice([]any{"a", 1, "b"}))
	assert.Equal(t, []string{"a"}, StringSlice([]string{"a"}))
	assert.Nil(t, StringSlice("a"))
}

func TestStringMap(t *testing.T) {
	data := map[string]any{
		"licenses.CC0":        "https://creativecommons.org/publicdomain/zero/1.0/",
		"licenses.CC BY 4.0":  "https://creativecommons.org/licenses/by/4.0/",
		"licenses.bad":        12,
		"licensesx.unrelated": "no",
	}

	m := StringMap(data, "licenses")
	assert.Len(t, m, 2)
	assert.Equal(t, "https://creativecommons.org/licenses/by/4.0/", m["CC BY 4.0"])

	assert.Nil(t, StringMap(data, "missing"))

	nested := map[string]any{"licenses": map[string]any{"Own": ""}}
	assert.Equal(t, map[string]string{"Own": ""}, StringMap(nested, "licenses"))
}

func TestFlatten(t *testing.T) {
	in := map[string]any{
		"overlay": map[string]any{
			"label":    "Source:",
			"position": map[string]any{"corner": "top-left"},
		},
		"top": 1,
	}

	out := Flatten(in, "")
	assert.Equal(t, "Source:", out["overlay.label"])
	assert.Equal(t, "top-left", out["overlay.position.corner"])
	assert.Equal(t, 1, out["top"])
	assert.Equal(t, []string{"overlay.label", "overlay.position.corner", "top"}, Keys(out))
}
