package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchServiceURL(t *testing.T) {
	t.Parallel()

	layer := func(i int) *int { return &i }

	tests := []struct {
		name     string
		url      string
		match    bool
		expected ServiceRef
	}{
		{
			name:     "map server layer",
			url:      "https://gis.example.net/server/rest/services/Folder1/MyService/MapServer/3",
			match:    true,
			expected: ServiceRef{Directory: "Folder1", Name: "MyService", LayerID: layer(3)},
		},
		{
			name:     "feature server without layer",
			url:      "https://gis.example.net/server/rest/services/Folder1/MyService/FeatureServer",
			match:    true,
			expected: ServiceRef{Directory: "Folder1", Name: "MyService"},
		},
		{
			name:     "trailing slash",
			url:      "https://gis.example.net/server/rest/services/Base/Roads/MapServer/",
			match:    true,
			expected: ServiceRef{Directory: "Base", Name: "Roads"},
		},
		{
			name:  "root folder service has no directory segment",
			url:   "https://gis.example.net/server/rest/services/Roads/MapServer",
			match: false,
		},
		{
			name:  "not an ArcGIS url",
			url:   "https://tiles.example.org/wmts/1.0.0/WMTSCapabilities.xml",
			match: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ref, ok := MatchServiceURL(tt.url)
			require.Equal(t, tt.match, ok)
			assert.Equal(t, tt.expected, ref)
		})
	}
}
