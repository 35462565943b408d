package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArtifactSet(t *testing.T) {
	s := NewArtifactSet()
	s.Set("b.php", "1")
	s.Set("a.php", "2")
	s.Set("b.php", "3")

	assert.Equal(t, []string{"b.php", "a.php"}, s.Names())
	assert.Equal(t, 2, s.Len())
	got, ok := s.Get("b.php")
	assert.True(t, ok)
	assert.Equal(t, "3", got)
	assert.False(t, s.Has("c.php"))
	assert.Equal(t, 2, s.TotalBytes())

	var seen []string
	for name, content := range s.All() {
		seen = append(seen, name+"="+content)
	}
	assert.Equal(t, []string{"b.php=3", "a.php=2"}, seen)

	names := s.Names()
	names[0] = "mutated"
	assert.Equal(t, "b.php", s.Names()[0], "Names returns a copy")
}
