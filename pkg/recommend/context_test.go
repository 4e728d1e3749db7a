package recommend

import (
	"strings"
	"testing"

	"ai-bookrec-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

func TestBuildPreferenceContext(t *testing.T) {
	library := []store.LibraryEntry{
		{Title: "Loved", Author: "A", UserRating: 5, Shelf: store.ShelfRead},
		{Title: "Liked", Author: "B", UserRating: 4, Shelf: store.ShelfRead},
		{Title: "Meh", Author: "C", UserRating: 3, Shelf: store.ShelfRead},
		{Title: "Hated", Author: "D", UserRating: 1, Shelf: store.ShelfRead},
		{Title: "Unrated", Author: "E", UserRating: 0, Shelf: store.ShelfRead},
		{Title: "Queued", Author: "F", UserRating: 5, Shelf: store.ShelfToRead},
	}

	pc := BuildPreferenceContext(library, 4, 2)

	assert.Equal(t, 5, pc.ReadCount)
	assert.Len(t, pc.Favorites, 2)
	assert.Len(t, pc.Dislikes, 1)
	assert.Equal(t, 1, pc.Ratings[5])
	assert.Equal(t, 1, pc.Ratings[4])
	assert.Equal(t, 1, pc.Ratings[3])
	assert.Equal(t, 1, pc.Ratings[1])
}

func TestPreferenceContextSummary(t *testing.T) {
	t.Run("empty library renders nothing", func(t *testing.T) {
		pc := BuildPreferenceContext(nil, 4, 2)
		assert.Empty(t, pc.Summary(4, 2, 5, 3))
	})

	t.Run("bounds favorite list", func(t *testing.T) {
		var library []store.LibraryEntry
		for i := 0; i < 8; i++ {
			library = append(library, store.LibraryEntry{
				Title: "Fav", Author: "A", UserRating: 5, Shelf: store.ShelfRead,
			})
		}
		pc := BuildPreferenceContext(library, 4, 2)
		summary := pc.Summary(4, 2, 5, 3)

		assert.Contains(t, summary, "8 books read")
		assert.Contains(t, summary, "... and 3 more")
		assert.Equal(t, 5, strings.Count(summary, "- Fav by A"))
	})

	t.Run("lists dislikes with threshold", func(t *testing.T) {
		library := []store.LibraryEntry{
			{Title: "Bad", Author: "B", UserRating: 2, Shelf: store.ShelfRead},
		}
		pc := BuildPreferenceContext(library, 4, 2)
		summary := pc.Summary(4, 2, 5, 3)

		assert.Contains(t, summary, "Books user disliked (rated 1-2 stars):")
		assert.Contains(t, summary, "- Bad by B (2 stars)")
		assert.Contains(t, summary, "Rating distribution:")
	})
}
