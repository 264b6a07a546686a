// Package mapapps reads map.apps applications from the map.apps database and
// fetches their app.json configuration over HTTP.
package mapapps
