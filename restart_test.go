package esio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRestartRenameKeepThree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "chk000"), "old-chk000")
	writeFile(t, filepath.Join(dir, "chk001"), "old-chk001")
	writeFile(t, filepath.Join(dir, "new"), "new")

	err := RestartRename(filepath.Join(dir, "new"), filepath.Join(dir, "chk###"), 3)
	require.NoError(t, err)

	require.Equal(t, "new", readFile(t, filepath.Join(dir, "chk000")))
	require.Equal(t, "old-chk000", readFile(t, filepath.Join(dir, "chk001")))
	require.Equal(t, "old-chk001", readFile(t, filepath.Join(dir, "chk002")))
	require.NoFileExists(t, filepath.Join(dir, "new"))
}

func TestRestartRenameWidens(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "new"), "new")

	err := RestartRename(filepath.Join(dir, "new"), filepath.Join(dir, "chk#"), 1000)
	require.NoError(t, err)

	// keep=1000 widens the one-character run to four digits.
	require.FileExists(t, filepath.Join(dir, "chk0000"))
}

func TestRestartRenameWidthFromTemplate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "new"), "new")

	require.NoError(t, RestartRename(filepath.Join(dir, "new"), filepath.Join(dir, "chk#####"), 2))
	require.FileExists(t, filepath.Join(dir, "chk00000"))
}

func TestRestartRenameDropsBeyondHorizon(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "chk0"), "a")
	writeFile(t, filepath.Join(dir, "chk1"), "b")
	writeFile(t, filepath.Join(dir, "chk2"), "c")
	writeFile(t, filepath.Join(dir, "new"), "new")

	require.NoError(t, RestartRename(filepath.Join(dir, "new"), filepath.Join(dir, "chk#"), 2))

	require.Equal(t, "new", readFile(t, filepath.Join(dir, "chk0")))
	require.Equal(t, "a", readFile(t, filepath.Join(dir, "chk1")))
	// Entries at or beyond the horizon are dropped from the rotation but
	// never unlinked.
	require.Equal(t, "c", readFile(t, filepath.Join(dir, "chk2")))
}

func TestRestartRenameMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := RestartRename(filepath.Join(dir, "absent"), filepath.Join(dir, "chk#"), 3)
	require.Error(t, err)
	require.Equal(t, EINVAL, CodeOf(err))
}

func TestRestartRenameBadKeep(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "new"), "new")
	err := RestartRename(filepath.Join(dir, "new"), filepath.Join(dir, "chk#"), 0)
	require.Equal(t, EINVAL, CodeOf(err))
}

func TestRestartRenameBadTemplate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "new"), "new")

	for _, tmpl := range []string{"chk", "a#b#", "##x##"} {
		err := RestartRename(filepath.Join(dir, "new"), filepath.Join(dir, tmpl), 3)
		require.Equalf(t, EINVAL, CodeOf(err), "template %q", tmpl)
	}
}

func TestNextIndexRoundTrip(t *testing.T) {
	tpl, err := parseTemplate("out/chk###.esio")
	require.NoError(t, err)
	require.Equal(t, 3, tpl.width)

	for _, idx := range []int{0, 1, 7, 42, 999, 12345} {
		name := filepath.Base(tpl.slot(idx))
		next, err := tpl.nextIndex(name)
		require.NoError(t, err)
		require.Equalf(t, idx+1, next, "name %q", name)
	}
}

func TestNextIndexNonMatch(t *testing.T) {
	tpl, err := parseTemplate("chk###.esio")
	require.NoError(t, err)

	for _, name := range []string{
		"chk.esio",      // no digits
		"chk12x.esio",   // non-digit in the run
		"chk123.dat",    // wrong suffix
		"log123.esio",   // wrong prefix
		"chk123",        // missing suffix
	} {
		next, err := tpl.nextIndex(name)
		require.NoError(t, err)
		require.Equalf(t, 0, next, "name %q", name)
	}
}

func TestNextIndexOverflow(t *testing.T) {
	tpl, err := parseTemplate("chk#")
	require.NoError(t, err)

	_, err = tpl.nextIndex("chk99999999999999999999999999")
	require.Error(t, err)
}
