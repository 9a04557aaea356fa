package service

import "context"

// SeenCache answers "was this source GUID published recently" without a
// database round-trip. Lookups are best effort; a miss falls through to the
// authoritative store.
type SeenCache interface {
	Seen(ctx context.Context, guid string) bool
	MarkSeen(ctx context.Context, guid string)
}
