package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUID(t *testing.T) {
	id, err := GenerateUUID()
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}

func TestFileFingerprint(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.ifc")
	b := filepath.Join(dir, "b.ifc")
	require.NoError(t, os.WriteFile(a, []byte("ISO-10303-21;"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("ISO-10303-21;\n"), 0o644))

	fa, err := FileFingerprint(a)
	require.NoError(t, err)
	again, err := FileFingerprint(a)
	require.NoError(t, err)
	fb, err := FileFingerprint(b)
	require.NoError(t, err)

	assert.Len(t, fa, 64)
	assert.Equal(t, fa, again)
	assert.NotEqual(t, fa, fb)

	_, err = FileFingerprint(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestCreateFolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, CreateFolder(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("**3** walls\nsecond line")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>3</strong>")
	assert.Contains(t, out, "<br>")

	out, err = RenderMarkdown("<script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}
