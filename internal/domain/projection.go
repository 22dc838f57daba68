package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Read models, one per use case. Thumbnail and picture fields hold signed URLs.

// MapDetails is the full view of a single map.
type MapDetails struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Uploaded        bool     `json:"uploaded"`
	Tags            []string `json:"tags"`
	Countries       []string `json:"countries"`
	PublicationDate string   `json:"publication_date,omitempty"`
	Likes           int      `json:"likes"`
	PlacesQuantity  int      `json:"places_quantity"`
	ThumbnailURL    string   `json:"thumbnail_url,omitempty"`
	CreatorID       int64    `json:"creator_id"`
	CreatorName     string   `json:"creator_name"`
	CreatorPicture  string   `json:"creator_picture,omitempty"`
}

// MapCard is a published map as shown in search results.
type MapCard struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Likes          int      `json:"likes"`
	Tags           []string `json:"tags,omitempty"`
	ThumbnailURL   string   `json:"thumbnail_url,omitempty"`
	CreatorID      int64    `json:"creator_id"`
	CreatorName    string   `json:"creator_name"`
	CreatorPicture string   `json:"creator_picture,omitempty"`
}

// MapSummary is an entry of a user's own or liked map list.
type MapSummary struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Uploaded       bool   `json:"uploaded"`
	Likes          int    `json:"likes"`
	PlacesQuantity int    `json:"places_quantity"`
	ThumbnailURL   string `json:"thumbnail_url,omitempty"`
}

// Marker is a marker place with resolved photo URL.
type Marker struct {
	ID          int64   `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Color       string  `json:"color,omitempty"`
	Country     string  `json:"country,omitempty"`
	PhotoURL    string  `json:"photo_url,omitempty"`
}

// Circle is a circle place.
type Circle struct {
	ID          int64   `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Radius      float64 `json:"radius"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Color       string  `json:"color,omitempty"`
}

// PlacesBucket selects maps by their number of places.
type PlacesBucket int

const (
	PlacesAny        PlacesBucket = iota
	PlacesUnder5                  // < 5
	Places5To10                   // 5..10
	Places11To15                  // 11..15
	Places16To20                  // 16..20
	PlacesOver20                  // > 20
)

// Bounds returns the inclusive place-count range of the bucket; max < 0 means unbounded.
func (b PlacesBucket) Bounds() (min, max int) {
	switch b {
	case PlacesUnder5:
		return 0, 4
	case Places5To10:
		return 5, 10
	case Places11To15:
		return 11, 15
	case Places16To20:
		return 16, 20
	case PlacesOver20:
		return 21, -1
	default:
		return 0, -1
	}
}

// MapFilter narrows the published-map search.
type MapFilter struct {
	Terms   []string
	Country string
	Places  PlacesBucket
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	n := p.Number
	if n < 1 {
		n = 1
	}
	return (n - 1) * p.Size
}

// Profile is the public view of a user.
type Profile struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	CreatedDate    string `json:"created_date"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Digest is the hex SHA-256 of the content.
func (u Upload) Digest() string {
	sum := sha256.Sum256(u.Content)
	return hex.EncodeToString(sum[:])
}

// ReleaseFailure describes an external resource that could not be released.
type ReleaseFailure struct {
	Ref   string `json:"ref"`
	Error string `json:"error"`
}

// CleanupReport lists the external releases that failed during a deletion.
// Row removal has already happened when a report is produced.
type CleanupReport struct {
	Failures []ReleaseFailure `json:"failures,omitempty"`
}

// Clean reports whether every external release succeeded.
func (r CleanupReport) Clean() bool {
	return len(r.Failures) == 0
}
