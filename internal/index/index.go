package index

// DocumentIndex defines the interface for document indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type DocumentIndex interface {
	UpsertDocument(d DocumentRow, body string) error
	DeleteDocument(id string) error
	GetChecksum(id string) (string, error)
	GetDocument(id string) (*DocumentRow, error)
	ListDocuments(limit, offset int, tag string) ([]DocumentRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	DocumentsUsing(variable string) ([]string, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies DocumentIndex at compile time.
var _ DocumentIndex = (*DB)(nil)
