package options

// Filter decides which keys of a projection pass. A nil include list means
// "not set"; when both lists are set the include list wins.
type Filter struct {
	included map[string]struct{}
	excluded map[string]struct{}
}

// NewFilter copies the given lists into a Filter.
func NewFilter(included, excluded []string) Filter {
	return Filter{
		included: toSet(included),
		excluded: toSet(excluded),
	}
}

func toSet(names []string) map[string]struct{} {
	if names == nil {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Allows reports whether key passes the filter.
func (f Filter) Allows(key string) bool {
	if f.included != nil {
		_, ok := f.included[key]
		return ok
	}
	if f.excluded != nil {
		_, ok := f.excluded[key]
		return !ok
	}
	return true
}

// HasIncluded reports whether an include list is set.
func (f Filter) HasIncluded() bool {
	return f.included != nil
}

// HasExcluded reports whether an exclude list is set.
func (f Filter) HasExcluded() bool {
	return f.excluded != nil
}
