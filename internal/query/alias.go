package query

import "strconv"

// aliasGen hands out collision-free identifiers scoped to one compilation
// pass. Nothing survives past the compile.
type aliasGen struct {
	n int64
}

// next returns a short base-36 alias, distinct from every other alias
// produced by this generator.
func (g *aliasGen) next() string {
	g.n++
	return "gb" + strconv.FormatInt(g.n, 36)
}
