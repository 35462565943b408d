package transform

import (
	"iter"
	"maps"
	"slices"
)

// Well-known artifact names.
const (
	StyleSheet = "style.css"
	Index      = "index.php"
	Header     = "header.php"
	Footer     = "footer.php"
	Functions  = "functions.php"
	Readme     = "README.md"
)

// reserved names are always produced by the transformer itself and can never
// be claimed by a converted markup file.
var reserved = map[string]bool{StyleSheet: true, Functions: true, Readme: true}

// ArtifactSet is an ordered mapping of output filename to text content.
// Iteration follows insertion order; Set on an existing name replaces the
// content in place.
type ArtifactSet struct {
	order   []string
	content map[string]string
}

// NewArtifactSet returns an empty set.
func NewArtifactSet() *ArtifactSet {
	return &ArtifactSet{content: make(map[string]string)}
}

// Set stores content under name.
func (s *ArtifactSet) Set(name, content string) {
	if _, ok := s.content[name]; !ok {
		s.order = append(s.order, name)
	}
	s.content[name] = content
}

// Get returns the content stored under name.
func (s *ArtifactSet) Get(name string) (string, bool) {
	c, ok := s.content[name]
	return c, ok
}

// Has reports whether name is present.
func (s *ArtifactSet) Has(name string) bool {
	_, ok := s.content[name]
	return ok
}

// Len returns the number of artifacts.
func (s *ArtifactSet) Len() int { return len(s.order) }

// Names returns artifact names in insertion order.
func (s *ArtifactSet) Names() []string { return slices.Clone(s.order) }

// Each calls fn for every artifact in insertion order.
func (s *ArtifactSet) Each(fn func(name, content string)) {
	for _, name := range s.order {
		fn(name, s.content[name])
	}
}

// All returns an iterator over artifacts in insertion order.
func (s *ArtifactSet) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, name := range s.order {
			if !yield(name, s.content[name]) {
				return
			}
		}
	}
}

// Map returns a copy of the contents keyed by name.
func (s *ArtifactSet) Map() map[string]string {
	return maps.Clone(s.content)
}

// TotalBytes returns the summed content length of all artifacts.
func (s *ArtifactSet) TotalBytes() int {
	n := 0
	for _, c := range s.content {
		n += len(c)
	}
	return n
}
