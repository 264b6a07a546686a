// Package arcgis is the source client for the ArcGIS Server administrator API.
//
// It obtains a token from the portal generateToken endpoint, lists the map
// services of every folder and fetches per-service manifests. A rejected
// credential surfaces as *AuthenticationError and is fatal for a run; a
// manifest that cannot be fetched surfaces as *FetchError and only skips
// that service.
package arcgis
