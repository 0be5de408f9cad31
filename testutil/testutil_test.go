package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG_Deterministic(t *testing.T) {
	a := NewRNG(4711)
	b := NewRNG(4711)

	assert.Equal(t, a.Payload(64), b.Payload(64))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	a.Reset()
	assert.Equal(t, NewRNG(4711).Payload(64), a.Payload(64))
}

func TestRNG_Fingerprint(t *testing.T) {
	fp := NewRNG(1).Fingerprint()
	assert.Len(t, fp, 40)
	assert.Regexp(t, `^[0-9a-f]{40}$`, fp)
}

func TestReleaseDir(t *testing.T) {
	rd := NewReleaseDir(t)
	assert.NotEqual(t, rd.Path, rd.ArtifactsDir)

	rd.AddDir("src/empty")
	rd.AddFiles("jobs/web", "monit", "spec", ".hidden")
	p := rd.AddFile("packages", "redis/packaging", []byte("make install"))

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "make install", string(data))

	assert.Equal(t, []string{".hidden", "monit", "spec"}, rd.Listing("jobs/web", false))
	assert.Equal(t, []string{"empty"}, rd.Listing("src", true))
	assert.Empty(t, rd.Listing("src", false))

	rd.RemoveFiles("jobs/web", "monit", "spec")
	assert.Equal(t, []string{".hidden"}, rd.Listing("jobs/web", false))
	rd.RemoveDir("jobs")
	_, err = os.Stat(rd.Join("jobs"))
	assert.True(t, os.IsNotExist(err))

	assert.False(t, rd.HasIndexFile("packages"))
	rd.AddFile("packages", "index.yml", nil)
	assert.True(t, rd.HasIndexFile("packages"))

	assert.Equal(t, filepath.Join(rd.ArtifactsDir, "abc.tgz"), rd.ArtifactPath("abc"))
	assert.False(t, rd.HasArtifact("abc"))
	require.NoError(t, os.WriteFile(rd.ArtifactPath("abc"), []byte("x"), 0o644))
	assert.True(t, rd.HasArtifact("abc"))

	payload := rd.WritePayload([]byte("payload"))
	data, err = os.ReadFile(payload)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}
