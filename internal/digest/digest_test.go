package digest

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes_KnownVector(t *testing.T) {
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", Bytes([]byte("abc")))
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", Bytes(nil))
}

func TestReader_MatchesBytes(t *testing.T) {
	data := bytes.Repeat([]byte("payload"), 10_000)

	sum, err := Reader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Bytes(data), sum)
	assert.True(t, Valid(sum))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestReader_Error(t *testing.T) {
	_, err := Reader(failingReader{})
	assert.EqualError(t, err, "boom")
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(strings.Repeat("a", Size)))
	assert.False(t, Valid(""))
	assert.False(t, Valid(strings.Repeat("A", Size)))
	assert.False(t, Valid(strings.Repeat("g", Size)))
	assert.False(t, Valid(strings.Repeat("a", Size-1)))
}
