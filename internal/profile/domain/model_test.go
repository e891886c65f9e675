package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaRefStates(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		ref := EmptyRef()
		assert.True(t, ref.IsEmpty())
		assert.False(t, ref.IsInline())
		assert.False(t, ref.IsExternal())
	})

	t.Run("inline strips to empty", func(t *testing.T) {
		ref := InlineRef([]byte("payload"), "image/png")
		assert.True(t, ref.IsInline())
		assert.True(t, ref.Stripped().IsEmpty())
	})

	t.Run("external passes through strip", func(t *testing.T) {
		ref := ExternalRef("ipfs://bafy123")
		assert.True(t, ref.IsExternal())
		assert.Equal(t, ref, ref.Stripped())
	})

	t.Run("external with empty uri is empty", func(t *testing.T) {
		assert.True(t, ExternalRef("").IsEmpty())
	})

	t.Run("zero value counts as empty", func(t *testing.T) {
		var ref MediaRef
		assert.True(t, ref.IsEmpty())
	})
}

func TestProfileStripInline(t *testing.T) {
	p := DefaultProfile()
	p.ImageRef = InlineRef([]byte("img"), "image/png")
	p.ReadmeRef = ExternalRef("ipfs://readme")
	p.Projects = []Project{{
		ID:   "p1",
		Name: "demo",
		Gallery: []MediaRef{
			ExternalRef("ipfs://kept"),
			InlineRef([]byte("raw"), "image/jpeg"),
		},
		VideoRef:   InlineRef([]byte("vid"), "video/mp4"),
		VideoThumb: ExternalRef("https://example.com/t.png"),
	}}
	p.Activity.BlogPosts = []BlogPost{{ID: "b1", CoverImage: InlineRef([]byte("c"), "image/png")}}
	p.Activity.Certificates = []Certificate{{ID: "c1", ImageRef: InlineRef([]byte("c"), "image/png")}}

	stripped := p.StripInline()

	assert.True(t, stripped.ImageRef.IsEmpty())
	assert.Equal(t, "ipfs://readme", stripped.ReadmeRef.URI)
	require.Len(t, stripped.Projects[0].Gallery, 1)
	assert.Equal(t, "ipfs://kept", stripped.Projects[0].Gallery[0].URI)
	assert.True(t, stripped.Projects[0].VideoRef.IsEmpty())
	assert.Equal(t, "https://example.com/t.png", stripped.Projects[0].VideoThumb.URI)
	assert.True(t, stripped.Activity.BlogPosts[0].CoverImage.IsEmpty())
	assert.True(t, stripped.Activity.Certificates[0].ImageRef.IsEmpty())

	// The original keeps its inline payloads for previews.
	assert.True(t, p.ImageRef.IsInline())
	assert.Len(t, p.Projects[0].Gallery, 2)
	assert.False(t, stripped.HasInlineMedia())
	assert.True(t, p.HasInlineMedia())
}

func TestProfileCloneIsDeep(t *testing.T) {
	p := DefaultProfile()
	p.Name = "Alice"
	p.Projects = []Project{{ID: "p1", Tags: []string{"go"}}}

	c := p.Clone()
	c.Projects[0].Tags[0] = "rust"
	c.Name = "Bob"

	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, "go", p.Projects[0].Tags[0])
}
