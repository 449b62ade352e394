package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadRendersFrontMatterAndMarkdown(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "rentals.md", "---\ntitle: Rentals\nheading: Available homes\nsummary: Updated daily\n---\n\nBrowse **current** listings.\n")

	page, err := Load(dir, "rentals")
	require.NoError(t, err)
	assert.Equal(t, "Rentals", page.Title)
	assert.Equal(t, "Available homes", page.Heading)
	assert.Equal(t, "Updated daily", page.Summary)
	assert.Contains(t, string(page.Body), "<strong>current</strong>")
}

func TestLoadStripsScripts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "rentals.md", "Hello <script>alert(1)</script> [site](https://example.com)\n")

	page, err := Load(dir, "rentals")
	require.NoError(t, err)
	body := string(page.Body)
	assert.NotContains(t, body, "<script")
	assert.Contains(t, body, `rel="nofollow"`)
	assert.Empty(t, page.Title)
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	_, err := Load(t.TempDir(), "rentals")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = Load(t.TempDir(), "../etc/passwd")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadBadFrontMatter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "rentals.md", "---\ntitle: [unterminated\n---\nbody\n")

	_, err := Load(dir, "rentals")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
