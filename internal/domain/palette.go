package domain

import (
	"hash/fnv"
	"strconv"
)

// Palette is the fixed set of route colors. Colors repeat across routes once
// the palette is exhausted; pickup and drop markers are told apart by shape.
var Palette = [...]string{
	"#e6194b",
	"#3cb44b",
	"#4363d8",
	"#f58231",
	"#911eb4",
	"#46f0f0",
	"#f032e6",
	"#bcf60c",
	"#008080",
	"#9a6324",
}

// Color maps a route id to a palette entry. Numeric ids index the palette by
// modulo; other ids are hashed first.
func Color(routeID string) string {
	n := len(Palette)
	if v, err := strconv.ParseInt(routeID, 10, 64); err == nil {
		i := v % int64(n)
		if i < 0 {
			i += int64(n)
		}
		return Palette[i]
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(routeID))
	return Palette[h.Sum32()%uint32(n)]
}
