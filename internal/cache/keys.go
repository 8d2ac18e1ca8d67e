package cache

// Key naming is an interop contract: other deployments of this service share
// the same Redis namespace, so the forms below must not change.

// CollectionKey caches the full media collection snapshot.
const CollectionKey = "media:all"

// RecordKey caches a single media record snapshot under its canonical id.
func RecordKey(id string) string {
	return "media:" + id
}
