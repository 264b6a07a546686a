// Package extract turns fetched configuration documents into candidate records.
//
// Service manifests are XML and are queried with XPath. map.apps app.json
// documents come in several configuration shapes; ResolveVersion picks the
// shape once per document and extraction is dispatched through a table keyed
// by that version.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

const (
	datasetPathQuery  = "//Datasets/SVCDataset/OnPremisePath"
	resourcePathQuery = "//Resources/SVCResource/OnPremisePath"
)

// Manifest is the part of a service manifest the service-layer report needs.
type Manifest struct {
	// Datasets are the on-premise paths of every dataset served by the service
	Datasets []string

	// Resource is the path of the document the service was published from, or ""
	Resource string
}

// ParseManifest parses a manifest.xml document.
func ParseManifest(data []byte) (*Manifest, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	datasets, err := xmlquery.QueryAll(doc, datasetPathQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}

	m := &Manifest{Datasets: make([]string, 0, len(datasets))}
	for _, node := range datasets {
		if path := strings.TrimSpace(node.InnerText()); path != "" {
			m.Datasets = append(m.Datasets, path)
		}
	}

	resource, err := xmlquery.Query(doc, resourcePathQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	if resource != nil {
		m.Resource = strings.TrimSpace(resource.InnerText())
	}

	return m, nil
}
