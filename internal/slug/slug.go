// Package slug derives unique, URL-safe slugs from free text.
package slug

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	gosimple "github.com/gosimple/slug"
)

// ErrUnableToGenerate is returned when no unique slug could be produced,
// either because the input normalizes to nothing or because every retry
// collided with an existing slug.
var ErrUnableToGenerate = errors.New("unable to generate unique slug")

// maxAttempts bounds the collision retry loop.
const maxAttempts = 20

// disambiguatorLength is the number of random hex characters prepended to
// the text when the plain slug collides.
const disambiguatorLength = 3

// Checker reports whether a candidate slug is already taken. The storage
// uniqueness constraint remains the final backstop: a concurrent allocation
// can still win the race between this check and the insert.
type Checker func(ctx context.Context, candidate string) (bool, error)

// Unique normalizes text into a slug, truncated to maxLength when positive,
// and retries with a random prefix until the checker reports no collision.
// The prefix goes in front of the text so truncation never removes it.
func Unique(ctx context.Context, taken Checker, text string, maxLength int) (string, error) {
	candidate := text
	for attempt := 0; attempt < maxAttempts; attempt++ {
		slugged := truncate(gosimple.Make(candidate), maxLength)
		if slugged == "" {
			return "", fmt.Errorf("%w: empty input", ErrUnableToGenerate)
		}
		exists, err := taken(ctx, slugged)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnableToGenerate, err)
		}
		if !exists {
			return slugged, nil
		}
		candidate = disambiguator() + "-" + text
	}
	return "", ErrUnableToGenerate
}

func disambiguator() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:2])[:disambiguatorLength]
}

// truncate shortens a slug to max bytes, cutting at a hyphen so no partial
// word survives.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	s = s[:max]
	if i := strings.LastIndex(s, "-"); i > 0 {
		s = s[:i]
	}
	return strings.Trim(s, "-")
}
