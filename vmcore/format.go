package vmcore

import (
	"strconv"

	"github.com/nboxvm/nbox/value"
)

// formatValue renders v per the spec's "decimal, floats use a
// double-precision textual form" rule. Floats carry a trailing 'f' to
// distinguish them from integer output; Str cells are reassembled from
// their underlying bytes by the caller before this is reached.
func formatValue(v value.Value) string {
	if v.Tag() == value.F64 {
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64) + "f"
	}
	return strconv.FormatInt(v.As(v.Tag()), 10)
}
