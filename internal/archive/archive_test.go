package archive

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// writeZip builds an archive with entries in exactly the given order
func writeZip(t *testing.T, entries [][2]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for _, e := range entries {
		fw, err := w.Create(e[0])
		require.NoError(t, err)
		_, err = fw.Write([]byte(e[1]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestBuildIncludesFilesAndDirectories(t *testing.T) {
	src := writeTree(t, map[string]string{
		"main.tf":                "resource {}",
		"modules/net/vars.tf":    "variable {}",
		"modules/net/outputs.tf": "output {}",
	})

	dest := filepath.Join(t.TempDir(), "out.zip")
	info, err := Build(src, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, info.Path)
	assert.Equal(t, 5, info.Entries)
	assert.Positive(t, info.Size)

	r, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{
		"main.tf",
		"modules/",
		"modules/net/",
		"modules/net/outputs.tf",
		"modules/net/vars.tf",
	}, names)
}

// zipContents maps entry names to their content
func zipContents(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	contents := make(map[string]string, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		contents[f.Name] = string(data)
	}
	return contents
}

func TestBuildFollowsFileSymlinks(t *testing.T) {
	shared := writeTree(t, map[string]string{"variables.tf": `variable "region" {}`})
	src := writeTree(t, map[string]string{"main.tf": "resource {}"})
	require.NoError(t, os.Symlink(filepath.Join(shared, "variables.tf"), filepath.Join(src, "variables.tf")))
	require.NoError(t, os.Symlink(filepath.Join(shared, "missing.tf"), filepath.Join(src, "dangling.tf")))
	require.NoError(t, os.Symlink(shared, filepath.Join(src, "linked-dir")))

	tmp := t.TempDir()
	first, err := Build(src, filepath.Join(tmp, "1.zip"))
	require.NoError(t, err)
	assert.Equal(t, 2, first.Entries)
	assert.ElementsMatch(t, []string{"dangling.tf", "linked-dir"}, first.Skipped)
	assert.Equal(t, map[string]string{
		"main.tf":      "resource {}",
		"variables.tf": `variable "region" {}`,
	}, zipContents(t, first.Path))

	// Editing the link target must show up as a change
	require.NoError(t, os.WriteFile(filepath.Join(shared, "variables.tf"), []byte(`variable "zone" {}`), 0o644))
	second, err := Build(src, filepath.Join(tmp, "2.zip"))
	require.NoError(t, err)

	result, err := Compare(second.Path, first.Path)
	require.NoError(t, err)
	assert.False(t, result.Identical)
	assert.Equal(t, ReasonFileDiff, result.Reason)
	assert.Equal(t, "variables.tf", result.MismatchedEntry)
}

func TestBuildSymlinkedSourceDirectory(t *testing.T) {
	target := writeTree(t, map[string]string{"main.tf": "resource {}", "sub/x.tf": "x"})
	link := filepath.Join(t.TempDir(), "module")
	require.NoError(t, os.Symlink(target, link))

	info, err := Build(link, filepath.Join(t.TempDir(), "out.zip"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"main.tf": "resource {}", "sub/": "", "sub/x.tf": "x"}, zipContents(t, info.Path))
}

func TestBuildEmptyDirectory(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "empty.zip")
	info, err := Build(t.TempDir(), dest)
	require.NoError(t, err)
	assert.Zero(t, info.Entries)

	r, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer r.Close()
	assert.Empty(t, r.File)
}

func TestBuildMissingSource(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.zip")
	_, err := Build(filepath.Join(t.TempDir(), "nope"), dest)
	require.Error(t, err)
	assert.NoFileExists(t, dest)
}

func TestBuildTwiceCompareIdentical(t *testing.T) {
	src := writeTree(t, map[string]string{"a.tf": "aaa", "sub/b.tf": "bbb"})
	tmp := t.TempDir()

	first, err := Build(src, filepath.Join(tmp, "1.zip"))
	require.NoError(t, err)
	second, err := Build(src, filepath.Join(tmp, "2.zip"))
	require.NoError(t, err)

	result, err := Compare(first.Path, second.Path)
	require.NoError(t, err)
	assert.True(t, result.Identical)
	assert.Equal(t, ReasonAllMatched, result.Reason)
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name      string
		a         [][2]string
		b         [][2]string
		identical bool
		reason    Reason
		entry     string
	}{
		{
			name:      "same content different order",
			a:         [][2]string{{"x.tf", "1"}, {"y.tf", "2"}},
			b:         [][2]string{{"y.tf", "2"}, {"x.tf", "1"}},
			identical: true,
			reason:    ReasonAllMatched,
		},
		{
			name:   "content differs",
			a:      [][2]string{{"x.tf", "1"}, {"y.tf", "2"}},
			b:      [][2]string{{"x.tf", "1"}, {"y.tf", "3"}},
			reason: ReasonFileDiff,
			entry:  "y.tf",
		},
		{
			name:   "entry missing from second",
			a:      [][2]string{{"x.tf", "1"}, {"new.tf", "2"}},
			b:      [][2]string{{"x.tf", "1"}},
			reason: ReasonMissingFile,
			entry:  "new.tf",
		},
		{
			name:      "extra entries in second are ignored",
			a:         [][2]string{{"x.tf", "1"}},
			b:         [][2]string{{"x.tf", "1"}, {"gone.tf", "2"}},
			identical: true,
			reason:    ReasonAllMatched,
		},
		{
			name:   "first mismatch in a's order wins",
			a:      [][2]string{{"b.tf", "changed"}, {"a.tf", "missing"}},
			b:      [][2]string{{"b.tf", "orig"}},
			reason: ReasonFileDiff,
			entry:  "b.tf",
		},
		{
			name:      "empty first archive",
			a:         nil,
			b:         [][2]string{{"x.tf", "1"}},
			identical: true,
			reason:    ReasonAllMatched,
		},
		{
			name:      "duplicate names in second resolve to the last",
			a:         [][2]string{{"x.tf", "new"}},
			b:         [][2]string{{"x.tf", "old"}, {"x.tf", "new"}},
			identical: true,
			reason:    ReasonAllMatched,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := writeZip(t, tt.a)
			b := writeZip(t, tt.b)

			result, err := Compare(a, b)
			require.NoError(t, err)
			assert.Equal(t, tt.identical, result.Identical)
			assert.Equal(t, tt.reason, result.Reason)
			assert.Equal(t, tt.entry, result.MismatchedEntry)
		})
	}
}

func TestCompareIsAsymmetric(t *testing.T) {
	small := writeZip(t, [][2]string{{"x.tf", "1"}})
	large := writeZip(t, [][2]string{{"x.tf", "1"}, {"y.tf", "2"}})

	forward, err := Compare(small, large)
	require.NoError(t, err)
	assert.True(t, forward.Identical)

	backward, err := Compare(large, small)
	require.NoError(t, err)
	assert.False(t, backward.Identical)
	assert.Equal(t, ReasonMissingFile, backward.Reason)
}

func TestCompareUnreadableArchive(t *testing.T) {
	bogus := filepath.Join(t.TempDir(), "bogus.zip")
	require.NoError(t, os.WriteFile(bogus, []byte("not a zip"), 0o644))
	good := writeZip(t, [][2]string{{"x.tf", "1"}})

	_, err := Compare(bogus, good)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnreadableTarget), "a fault in the first archive is not a target fault")

	_, err = Compare(good, bogus)
	assert.ErrorIs(t, err, ErrUnreadableTarget)
}
