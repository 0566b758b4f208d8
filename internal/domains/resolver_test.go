package domains

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapTagLookup map[string]Category

func (m mapTagLookup) LookupTag(_ context.Context, domain string) (Category, bool, error) {
	cat, ok := m[domain]
	return cat, ok, nil
}

func TestResolveOwnedBeatsTags(t *testing.T) {
	tags := mapTagLookup{"owned.com": CategoryNews} // conflicting system tag
	r := NewResolver(tags)

	cat, err := r.Resolve(context.Background(), "owned.com", []string{"owned.com"})
	require.NoError(t, err)
	assert.Equal(t, CategoryOwned, cat)

	cat, err = r.Resolve(context.Background(), "sub.owned.com", []string{"owned.com"})
	require.NoError(t, err)
	assert.Equal(t, CategoryOwned, cat)
}

func TestResolveOwnedSuffixNotSubstring(t *testing.T) {
	r := NewResolver(mapTagLookup{})

	cat, err := r.Resolve(context.Background(), "notowned.com", []string{"owned.com"})
	require.NoError(t, err)
	assert.Equal(t, CategoryUnknown, cat, "suffix match must not behave like substring match")
}

func TestResolveOwnedNormalizesEntries(t *testing.T) {
	r := NewResolver(mapTagLookup{})

	cat, err := r.Resolve(context.Background(), "owned.com", []string{" WWW.Owned.COM "})
	require.NoError(t, err)
	assert.Equal(t, CategoryOwned, cat)
}

func TestResolveExactTag(t *testing.T) {
	r := NewResolver(mapTagLookup{"coindesk.com": CategoryNews})

	cat, err := r.Resolve(context.Background(), "coindesk.com", nil)
	require.NoError(t, err)
	assert.Equal(t, CategoryNews, cat)
}

func TestResolveParentTagFallback(t *testing.T) {
	r := NewResolver(mapTagLookup{"coindesk.com": CategoryNews})

	cat, err := r.Resolve(context.Background(), "blog.coindesk.com", nil)
	require.NoError(t, err)
	assert.Equal(t, CategoryNews, cat)
}

func TestResolveExactTagWinsOverParent(t *testing.T) {
	r := NewResolver(mapTagLookup{
		"example.com":      CategoryNews,
		"docs.example.com": CategoryDeveloper,
	})

	cat, err := r.Resolve(context.Background(), "docs.example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, CategoryDeveloper, cat)
}

func TestResolveUnknownFallback(t *testing.T) {
	r := NewResolver(mapTagLookup{})

	cat, err := r.Resolve(context.Background(), "mystery.site.xyz", nil)
	require.NoError(t, err)
	assert.Equal(t, CategoryUnknown, cat)
}

func TestCategoryValid(t *testing.T) {
	assert.True(t, CategoryNews.Valid())
	assert.True(t, CategoryUnknown.Valid())
	assert.False(t, Category("banana").Valid())
}
