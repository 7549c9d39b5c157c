package contenttype

import (
	"testing"

	"sitehub/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDeriveDefinition(t *testing.T) {
	ct := DeriveDefinition("blog", 30, nil)

	assert.Equal(t, "blog", ct.Name)
	assert.Equal(t, "Blog", ct.Label)
	assert.Equal(t, "Blogs", ct.PluralLabel)
	assert.Equal(t, DefaultIcon, ct.Icon)
	assert.Equal(t, DefaultColor, ct.Color)
	assert.Equal(t, 30, ct.MenuOrder)
	assert.True(t, ct.HasStatus)
	assert.False(t, ct.HasSEO)
	assert.False(t, ct.IsSystem)
}

func TestDeriveDisplay(t *testing.T) {
	d := DeriveDisplay("categories", nil)
	assert.Equal(t, "Category", d.Label)
	assert.Equal(t, "Categories", d.PluralLabel)

	d = DeriveDisplay("team_members", nil)
	assert.Equal(t, "Team member", d.Label)
	assert.Equal(t, "Team members", d.PluralLabel)

	d = DeriveDisplay("blog", &TypeHints{Label: "Article", Icon: "newspaper"})
	assert.Equal(t, "Article", d.Label)
	assert.Equal(t, "Blogs", d.PluralLabel)
	assert.Equal(t, "newspaper", d.Icon)
}

func TestBuiltins(t *testing.T) {
	builtins := Builtins()
	assert.Len(t, builtins, 2)
	for _, ct := range builtins {
		assert.True(t, ct.IsSystem)
		assert.True(t, IsBuiltin(ct.Name))
	}
	assert.Equal(t, models.ContentTypePages, builtins[0].Name)
	assert.False(t, IsBuiltin("blog"))
}
