// Package jellyfin is a small client for the parts of the Jellyfin API the
// dashboard uses: searching the library for a title Janitorr is about to
// delete, fetching an item by ID, proxying artwork and probing the server.
//
// Every request carries the API key from Janitorr's configuration in the
// X-MediaBrowser-Token header.
package jellyfin
