package contenttype

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "index.html", "<html></html>")
	writeTemplate(t, root, "blog/post.html", blogPostTemplate)
	writeTemplate(t, root, "blog/list.tmpl", "<ul></ul>")
	writeTemplate(t, root, "layouts/base.html", "<html></html>")
	writeTemplate(t, root, "events/broken.html", "---\nregions:\n  - name: a\n    type: video\n---\n")
	writeTemplate(t, root, "blog/readme.md", "# 说明")
	writeTemplate(t, root, ".git/HEAD.html", "ignored")

	result, err := Scan(root)
	require.NoError(t, err)

	var paths []string
	for _, a := range result.Artifacts {
		paths = append(paths, a.Path)
	}
	assert.Equal(t, []string{"blog/list.tmpl", "blog/post.html", "index.html", "layouts/base.html"}, paths)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "events/broken.html", result.Skipped[0].Path)
	assert.Contains(t, result.Skipped[0].Reason, "video")
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"))
	assert.True(t, errors.Is(err, ErrTemplatesRootMissing))
}

func TestScan_RootIsFile(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "file.html", "x")
	_, err := Scan(filepath.Join(root, "file.html"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTemplatesRootMissing))
}
