package contenttype

import (
	"errors"
	"strings"
	"testing"

	"sitehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferContentType(t *testing.T) {
	cases := []struct {
		path     string
		typeName string
		global   bool
	}{
		{"blog/post.html", "blog", false},
		{"blog/post/single.html", "blog", false},
		{"Team-Members/card.html", "team_members", false},
		{"pages/about.html", "pages", false},
		{"index.html", "pages", false},
		{"layouts/base.html", "", true},
		{"partials/header.html", "", true},
		{"Layouts/base.html", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			got, err := InferContentType(tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.typeName, got.ContentType)
			assert.Equal(t, tc.global, got.IsGlobal)
		})
	}
}

func TestInferContentType_Invalid(t *testing.T) {
	for _, p := range []string{"", ".", "../escape/x.html", "/abs/x.html", "2020/archive.html", "blog.v2/x.html"} {
		_, err := InferContentType(p)
		assert.Error(t, err, "路径 %q 应被拒绝", p)
	}
}

func TestInferContentType_RejectsCanonicalTableCollision(t *testing.T) {
	for _, p := range []string{"types/post.html", "Types/list.html"} {
		_, err := InferContentType(p)
		require.Error(t, err, "路径 %q 应被拒绝", p)
		assert.Contains(t, err.Error(), "标准表")
	}
}

func TestInferContentType_NameLength(t *testing.T) {
	longest := strings.Repeat("a", models.MaxContentTypeNameLength)
	got, err := InferContentType(longest + "/x.html")
	require.NoError(t, err)
	assert.Equal(t, longest, got.ContentType)

	_, err = InferContentType(longest + "a/x.html")
	assert.Error(t, err)
}

func TestParseArtifact_CollidingFolderIsArtifactError(t *testing.T) {
	_, err := ParseArtifact("types/post.html", []byte("<h1>post</h1>"))
	var artifactErr *ArtifactError
	require.True(t, errors.As(err, &artifactErr))
	assert.Equal(t, "types/post.html", artifactErr.Path)
}

func TestNormalizeTypeName(t *testing.T) {
	assert.Equal(t, "case_studies", NormalizeTypeName(" Case-Studies "))
	assert.True(t, ValidTypeName("case_studies"))
	assert.False(t, ValidTypeName("_private"))
	assert.False(t, ValidTypeName("types"))
	assert.False(t, ValidTypeName(strings.Repeat("a", 60)))
}
