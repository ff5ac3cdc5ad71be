package quantity

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ProducerProject owns the base inputs read from the project record.
const ProducerProject = "project"

// namePattern accepts snake_case segments separated by dots. Unit suffixes may
// carry capitals (design_flow_Ls, raw_turbidity_NTU).
var namePattern = regexp.MustCompile(`^[a-z][A-Za-z0-9_]*(\.[a-z][A-Za-z0-9_]*)*$`)

// NormalizeName returns the NFC form of name and checks it is well formed.
func NormalizeName(name string) (string, error) {
	n := norm.NFC.String(strings.TrimSpace(name))
	if n == "" {
		return "", fmt.Errorf("empty quantity name")
	}
	if !namePattern.MatchString(n) {
		return "", fmt.Errorf("invalid quantity name %q", name)
	}
	return n, nil
}

// Qualify joins a module id and a local name: Qualify("mixing", "volume_m3")
// is "mixing.volume_m3".
func Qualify(module, local string) string {
	return module + "." + local
}

// SplitQualified splits "module.local" at the first dot.
func SplitQualified(name string) (module, local string, ok bool) {
	i := strings.IndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return "", name, false
	}
	return name[:i], name[i+1:], true
}
