package jellyfin

import "net/url"

// Image types accepted by the image endpoint.
const (
	ImagePrimary  = "Primary"
	ImageBackdrop = "Backdrop"
	ImageThumb    = "Thumb"
	ImageLogo     = "Logo"
	ImageBanner   = "Banner"
	ImageArt      = "Art"
)

var imageTypes = map[string]bool{
	ImagePrimary:  true,
	ImageBackdrop: true,
	ImageThumb:    true,
	ImageLogo:     true,
	ImageBanner:   true,
	ImageArt:      true,
}

// ValidImageType reports whether t is an image type the client will fetch.
func ValidImageType(t string) bool {
	return imageTypes[t]
}

// MinItemIDLength is the shortest string accepted as an item ID. Jellyfin
// uses 32-character hex IDs or dashed GUIDs.
const MinItemIDLength = 16

// Item is a library entry.
type Item struct {
	ID             string            `json:"Id"`
	Name           string            `json:"Name"`
	Type           string            `json:"Type"`
	Path           string            `json:"Path,omitempty"`
	Overview       string            `json:"Overview,omitempty"`
	ProductionYear int               `json:"ProductionYear,omitempty"`
	RunTimeTicks   int64             `json:"RunTimeTicks,omitempty"`
	ImageTags      map[string]string `json:"ImageTags,omitempty"`
}

// HasImage reports whether the item has artwork of the given type.
func (i Item) HasImage(imageType string) bool {
	return i.ImageTags[imageType] != ""
}

// ImagePath is the dashboard's proxied URL for the item's primary image, or
// "" when it has none.
func ImagePath(item Item) string {
	if item.ID == "" || !item.HasImage(ImagePrimary) {
		return ""
	}
	return "/jellyfin/Items/" + url.PathEscape(item.ID) + "/Images/" + ImagePrimary
}

// Library is a top-level media folder.
type Library struct {
	ID             string `json:"Id"`
	Name           string `json:"Name"`
	CollectionType string `json:"CollectionType,omitempty"`
}

// SystemInfo is the unauthenticated server description.
type SystemInfo struct {
	ID           string `json:"Id"`
	ServerName   string `json:"ServerName"`
	Version      string `json:"Version"`
	ProductName  string `json:"ProductName,omitempty"`
	StartupReady bool   `json:"StartupWizardCompleted,omitempty"`
}

// Image is fetched artwork.
type Image struct {
	Data        []byte
	ContentType string
}

type itemsResponse struct {
	Items []Item `json:"Items"`
}

type librariesResponse struct {
	Items []Library `json:"Items"`
}
