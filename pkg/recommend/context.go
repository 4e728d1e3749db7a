package recommend

import (
	"fmt"
	"strings"

	"ai-bookrec-be/pkg/store"
)

// PreferenceContext splits a read library into the signal groups the
// selector prompt and the penalty stage care about.
type PreferenceContext struct {
	ReadCount int
	Favorites []store.LibraryEntry // rated at or above the high threshold
	Dislikes  []store.LibraryEntry // rated 1..dislike threshold
	Ratings   [6]int               // distribution, index = stars
}

// BuildPreferenceContext classifies read entries only; to-read and
// currently-reading shelves carry no rating signal.
func BuildPreferenceContext(library []store.LibraryEntry, highThreshold, dislikeThreshold int) PreferenceContext {
	pc := PreferenceContext{}
	for _, e := range library {
		if e.Shelf != store.ShelfRead {
			continue
		}
		pc.ReadCount++
		if e.UserRating >= 1 && e.UserRating <= 5 {
			pc.Ratings[e.UserRating]++
		}
		if e.UserRating >= highThreshold {
			pc.Favorites = append(pc.Favorites, e)
		} else if e.UserRating > 0 && e.UserRating <= dislikeThreshold {
			pc.Dislikes = append(pc.Dislikes, e)
		}
	}
	return pc
}

// Summary renders the reading-history block of the selector prompt,
// bounding the favorite and dislike lists so a large library cannot
// drown out the candidates.
func (pc PreferenceContext) Summary(highThreshold, dislikeThreshold, maxFavorites, maxDislikes int) string {
	if pc.ReadCount == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "User's reading history: %d books read\n\n", pc.ReadCount)

	if len(pc.Favorites) > 0 {
		fmt.Fprintf(&b, "Books user loved (rated %d-5 stars):\n", highThreshold)
		for i, e := range pc.Favorites {
			if i >= maxFavorites {
				fmt.Fprintf(&b, "  ... and %d more\n", len(pc.Favorites)-maxFavorites)
				break
			}
			fmt.Fprintf(&b, "  - %s by %s (%d stars)\n", e.Title, e.Author, e.UserRating)
		}
		b.WriteString("\n")
	}

	if len(pc.Dislikes) > 0 {
		fmt.Fprintf(&b, "Books user disliked (rated 1-%d stars):\n", dislikeThreshold)
		for i, e := range pc.Dislikes {
			if i >= maxDislikes {
				fmt.Fprintf(&b, "  ... and %d more\n", len(pc.Dislikes)-maxDislikes)
				break
			}
			fmt.Fprintf(&b, "  - %s by %s (%d stars)\n", e.Title, e.Author, e.UserRating)
		}
		b.WriteString("\n")
	}

	b.WriteString("Rating distribution:\n")
	fmt.Fprintf(&b, "  5: %d | 4: %d | 3: %d | 2: %d | 1: %d\n\n",
		pc.Ratings[5], pc.Ratings[4], pc.Ratings[3], pc.Ratings[2], pc.Ratings[1])

	return b.String()
}
