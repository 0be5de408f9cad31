package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string            `json:"name" yaml:"name"`
	Count int               `json:"count" yaml:"count"`
	Tags  map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "yaml"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("gob")
	assert.False(t, ok)
}

func TestForPath(t *testing.T) {
	assert.Equal(t, "json", ForPath("index.json").Name())
	assert.Equal(t, "yaml", ForPath("index.yml").Name())
	assert.Equal(t, "yaml", ForPath("index.YAML").Name())
	assert.Equal(t, Default.Name(), ForPath("index").Name())
}

func TestCodecs_Decode(t *testing.T) {
	in := doc{Name: "pkg", Count: 3, Tags: map[string]string{"a": "b"}}

	for _, c := range []Codec{JSON{}, YAML{}} {
		t.Run(c.Name(), func(t *testing.T) {
			var out doc
			require.NoError(t, c.Unmarshal(MustMarshal(c, in), &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestYAML_RejectsUnknownFields(t *testing.T) {
	var out doc
	err := YAML{}.Unmarshal([]byte("name: pkg\ncuont: 3\n"), &out)
	assert.Error(t, err)
}

func TestYAML_RejectsGarbage(t *testing.T) {
	var out doc
	assert.Error(t, YAML{}.Unmarshal([]byte("name: [unterminated"), &out))
	assert.Error(t, JSON{}.Unmarshal([]byte("{"), &out))
}
