package extract

import (
	"regexp"
	"strconv"
)

var serviceURLPattern = regexp.MustCompile(`/rest/services/(.+)/(.+)/(?:Map|Feature)Server/?(\d+)?`)

// ServiceRef is what a map or feature service URL reveals about its service.
type ServiceRef struct {
	Directory string
	Name      string

	// LayerID is nil when the URL addresses the whole service
	LayerID *int
}

// MatchServiceURL matches url against the ArcGIS REST path
// /rest/services/<dir>/<name>/(Map|Feature)Server[/<layer>].
func MatchServiceURL(url string) (ServiceRef, bool) {
	m := serviceURLPattern.FindStringSubmatch(url)
	if m == nil {
		return ServiceRef{}, false
	}

	ref := ServiceRef{Directory: m[1], Name: m[2]}
	if m[3] != "" {
		if id, err := strconv.Atoi(m[3]); err == nil {
			ref.LayerID = &id
		}
	}
	return ref, true
}
