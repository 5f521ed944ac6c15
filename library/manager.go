package library

// Library is a thin façade bundling the three services over one
// database, keeping CLI and HTTP code simple.
type Library struct {
	db    *Database
	clock Clock

	Catalog    *Catalog
	Membership *Membership
	Lending    *Lending
}

// Option customizes a Library.
type Option func(*Library)

// WithClock overrides the date source. Tests use it to pin "today".
func WithClock(c Clock) Option {
	return func(l *Library) { l.clock = c }
}

// NewLibrary opens (or creates) the SQLite database at dbPath and wires
// the services.
func NewLibrary(dbPath string, opts ...Option) (*Library, error) {
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}

	l := &Library{db: db, clock: systemClock{}}
	for _, opt := range opts {
		opt(l)
	}

	l.Catalog = NewCatalog(db)
	l.Membership = NewMembership(db, l.clock)
	l.Lending = NewLending(db, l.clock)
	return l, nil
}

// Close closes the underlying database.
func (l *Library) Close() error { return l.db.Close() }
