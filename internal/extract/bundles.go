package extract

import (
	"slices"
	"strings"
)

const (
	domainBundlePrefix = "domain-"

	// themesBundle is configured in almost every app without being listed in allowedBundles.
	themesBundle = "themes"
)

// DomainBundles returns the loaded bundles prefixed with "domain-".
func DomainBundles(loaded []string) []string {
	out := make([]string, 0)
	for _, b := range loaded {
		if strings.HasPrefix(b, domainBundlePrefix) {
			out = append(out, b)
		}
	}
	return out
}

// UnloadedBundles returns the configured bundles, sorted, whose name is not
// loaded. Loaded entries are compared without their @version suffix and the
// themes bundle is never reported.
func UnloadedBundles(loaded, configured []string) []string {
	base := make(map[string]struct{}, len(loaded))
	for _, b := range loaded {
		name, _, _ := strings.Cut(b, "@")
		base[name] = struct{}{}
	}

	var out []string
	for _, b := range configured {
		if b == themesBundle {
			continue
		}
		if _, ok := base[b]; !ok {
			out = append(out, b)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
