package transcode

// Schema declares which tag names must always decode as arrays, regardless
// of whether zero, one or many instances occur. Constructed once and passed
// to every Decode call; a nil Schema declares no array tags.
type Schema struct {
	arrays map[string]struct{}
}

// NewSchema builds a schema from the given always-array tag names
func NewSchema(tags ...string) *Schema {
	s := &Schema{arrays: make(map[string]struct{}, len(tags))}
	for _, tag := range tags {
		s.arrays[tag] = struct{}{}
	}
	return s
}

// With returns a copy of the schema extended with additional array tags
func (s *Schema) With(tags ...string) *Schema {
	next := &Schema{arrays: make(map[string]struct{}, len(s.arrays)+len(tags))}
	for tag := range s.arrays {
		next.arrays[tag] = struct{}{}
	}
	for _, tag := range tags {
		next.arrays[tag] = struct{}{}
	}
	return next
}

// Array reports whether tag must decode as an array
func (s *Schema) Array(tag string) bool {
	if s == nil {
		return false
	}
	_, ok := s.arrays[tag]
	return ok
}

// Tags returns the number of declared array tags
func (s *Schema) Tags() int {
	if s == nil {
		return 0
	}
	return len(s.arrays)
}

// ResponseSchema returns the array declarations the stock vim25 response
// shapes need: returnval (every Query*/Retrieve* result list), propSet
// (per-object property lists), and value/sampleInfo (time-series payloads,
// where value covers both the per-counter series list and the repeated
// sample values within each series).
func ResponseSchema() *Schema {
	return NewSchema("returnval", "propSet", "value", "sampleInfo")
}
