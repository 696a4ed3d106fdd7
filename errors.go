package pyrox

import (
	"errors"
	"fmt"

	"github.com/vmatei2/pyrox-client/manifest"
	"github.com/vmatei2/pyrox-client/remote"
)

var (
	// ErrNotFound is returned when no race matches a query.
	ErrNotFound = errors.New("not found")

	// ErrManifestUnavailable is returned when the manifest can neither be
	// fetched nor served from a cached copy.
	ErrManifestUnavailable = errors.New("manifest unavailable")
)

// ErrRaceNotFound indicates that a (season, location) query resolved to
// nothing: either the manifest does not list the race, or its artifact is
// gone from the remote store.
//
// It satisfies errors.Is(err, ErrNotFound). The original underlying error
// (if any) can be accessed via errors.Unwrap.
type ErrRaceNotFound struct {
	Season   int
	Location string
	cause    error
}

func (e *ErrRaceNotFound) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("no races found for season %d", e.Season)
	}
	return fmt.Sprintf("no race found for season %d, location %q", e.Season, e.Location)
}

func (e *ErrRaceNotFound) Is(target error) bool { return target == ErrNotFound }

func (e *ErrRaceNotFound) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Already in API terms.
	var rnf *ErrRaceNotFound
	if errors.As(err, &rnf) {
		return err
	}

	// Manifest trouble first: a manifest missing remotely also satisfies
	// remote.ErrNotFound, and the manifest verdict is the one callers act on.
	if errors.Is(err, manifest.ErrUnavailable) {
		return fmt.Errorf("%w: %w", ErrManifestUnavailable, err)
	}

	// Not found unification.
	if errors.Is(err, remote.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return err
}
