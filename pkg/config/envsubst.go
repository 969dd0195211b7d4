package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/cuemby/lakebox/pkg/errs"
)

// expandEnv interpolates ${VAR} references in raw YAML bytes using
// a8m/envsubst's bash-style expansion, then fails the load if any
// reference could not be resolved against the process environment —
// spec.md §4.2 step 3 requires this to be a hard failure, not a
// silent empty-string substitution.
func expandEnv(raw []byte) ([]byte, error) {
	var missing []string
	seen := map[string]bool{}

	mapping := func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return ""
	}

	out, err := envsubst.Eval(string(raw), mapping)
	if err != nil {
		return nil, errs.Wrap(errs.BadRequest, "expand environment references", err)
	}
	if len(missing) > 0 {
		return nil, errs.New(errs.BadRequest, fmt.Sprintf("unresolved environment reference(s): %s", strings.Join(missing, ", ")))
	}
	return []byte(out), nil
}
