package types

// WatchKind identifies which registry a watch belongs to.
//
// Document and collection watches live in disjoint keyspaces; a document
// resource key and a collection resource key never collide even when the
// strings are identical.
type WatchKind string

// Watch kinds.
const (
	// KindDocument is a watch on a single document.
	KindDocument WatchKind = "document"

	// KindCollection is a watch on the full result set of a collection.
	KindCollection WatchKind = "collection"
)

// DocumentSnapshot is the state of a single document at a point in time,
// as delivered by a live watch or a direct fetch.
type DocumentSnapshot struct {
	// Collection is the collection path the document belongs to.
	Collection string

	// ID is the document identifier within the collection.
	ID string

	// Data is the raw document payload. Nil when Deleted is true.
	Data []byte

	// Revision is the store-assigned revision of this state.
	// Zero when the document has never existed.
	Revision uint64

	// Deleted reports whether the document does not exist at this revision.
	// The initial snapshot of a watch on a missing document carries
	// Deleted=true so observers always receive a well-defined first state.
	Deleted bool
}

// Key returns the document's resource key, "<collection>/<id>".
func (s DocumentSnapshot) Key() string {
	return s.Collection + "/" + s.ID
}

// CollectionSnapshot is the full current result set of a collection at a
// point in time. Documents are sorted by ID so consecutive snapshots are
// directly comparable.
type CollectionSnapshot struct {
	// Collection is the watched collection path.
	Collection string

	// Documents holds every live document in the collection, sorted by ID.
	// Deleted documents are not included.
	Documents []DocumentSnapshot
}

// Len returns the number of documents in the result set.
func (s CollectionSnapshot) Len() int {
	return len(s.Documents)
}
