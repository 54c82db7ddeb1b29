package registry

// Statistics contains basic metrics for a persistent Registry
type Statistics struct {
	// Entries is the number of live bindings
	Entries int
	// Stores is the number of calls to Store, including ones that replaced an existing binding
	Stores int
	// Evictions is the number of bindings removed by Delete
	Evictions int
	// Lookups is the number of calls to Find and Lookup
	Lookups int
	// Misses is the number of lookups that did not find a usable binding
	Misses int
}

func (s *Statistics) Clear() {
	s.Entries = 0
	s.Stores = 0
	s.Evictions = 0
	s.Lookups = 0
	s.Misses = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.Entries += other.Entries
	s.Stores += other.Stores
	s.Evictions += other.Evictions
	s.Lookups += other.Lookups
	s.Misses += other.Misses
}
