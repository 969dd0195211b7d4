package lake

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Stringify renders a single cell for display, per spec.md §4.4's "value
// stringification is defined for every logical type" contract. NULL
// becomes the literal "NULL"; composite types fall back to Go's %v,
// which is lossy and intended for display, not round-trip.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case time.Time:
		return t.Format(time.RFC3339)
	case driver.Valuer:
		val, err := t.Value()
		if err != nil || val == nil {
			return "NULL"
		}
		return Stringify(val)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
