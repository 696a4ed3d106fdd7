package remote

import "context"

// FallbackTransport consults a secondary transport when the primary errors
// or reports a missing object. The published results live both in a public
// bucket and behind the API, so bucket-first access with API fallback keeps
// bulk reads cheap without giving up availability.
type FallbackTransport struct {
	primary   Transport
	secondary Transport
}

// NewFallbackTransport chains primary before secondary.
func NewFallbackTransport(primary, secondary Transport) *FallbackTransport {
	return &FallbackTransport{primary: primary, secondary: secondary}
}

// Probe implements Transport. A probe failure on the primary, including
// ErrNotFound, falls through to the secondary.
func (t *FallbackTransport) Probe(ctx context.Context, ref string) (string, error) {
	token, err := t.primary.Probe(ctx, ref)
	if err == nil {
		return token, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return t.secondary.Probe(ctx, ref)
}

// Fetch implements Transport. The secondary answers when the primary errors
// or reports StatusNotFound; its verdict is then final.
func (t *FallbackTransport) Fetch(ctx context.Context, ref, ifNoneMatch string) (*Result, error) {
	res, err := t.primary.Fetch(ctx, ref, ifNoneMatch)
	if err == nil && res.Status != StatusNotFound {
		return res, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return t.secondary.Fetch(ctx, ref, ifNoneMatch)
}
