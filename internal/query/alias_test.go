package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAliasGenDistinct(t *testing.T) {
	gen := &aliasGen{}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		a := gen.next()
		assert.False(t, seen[a], "alias %s repeated", a)
		seen[a] = true
	}
}

func TestAliasGenScopedToPass(t *testing.T) {
	a := &aliasGen{}
	b := &aliasGen{}
	assert.Equal(t, a.next(), b.next())
	assert.Equal(t, "gb1", (&aliasGen{}).next())
	assert.Equal(t, "gb2", a.next())
}
