package domain

import "time"

// Map is a user-owned collection of places, published or kept as a draft.
type Map struct {
	ID              int64     `gorm:"primaryKey;column:id" json:"id"`
	Name            *string   `gorm:"column:name;size:120" json:"name,omitempty"`
	Description     *string   `gorm:"column:description;type:text" json:"description,omitempty"`
	Uploaded        bool      `gorm:"column:uploaded;not null;default:false;index" json:"uploaded"`
	CreationDate    string    `gorm:"column:creation_date;size:10;not null" json:"creation_date"`
	PublicationDate *string   `gorm:"column:publication_date;size:10" json:"publication_date,omitempty"`
	Likes           RefCount  `gorm:"column:likes;not null;default:0" json:"likes"`
	PlacesQuantity  int       `gorm:"column:places_quantity;not null;default:0" json:"places_quantity"`
	Thumbnail       *string   `gorm:"column:thumbnail" json:"-"`
	ThumbnailDigest *string   `gorm:"column:thumbnail_digest;size:64" json:"-"`
	CreatorID       int64     `gorm:"column:creator_id;not null;index" json:"creator_id"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`

	// Relationships
	Creator   *User         `gorm:"foreignKey:CreatorID" json:"-"`
	Places    []Place       `gorm:"foreignKey:MapID" json:"places,omitempty"`
	Tags      []Tag         `gorm:"many2many:map_tags;" json:"tags,omitempty"`
	Countries []MapCountry  `gorm:"foreignKey:MapID" json:"countries,omitempty"`
	Likers    []UserMapLike `gorm:"foreignKey:MapID" json:"-"`
}

// TableName returns the table name for GORM
func (Map) TableName() string {
	return "maps"
}

// TagNames returns the names of the loaded tag associations.
func (m *Map) TagNames() []string {
	names := make([]string, 0, len(m.Tags))
	for _, t := range m.Tags {
		names = append(names, t.Name)
	}
	return names
}

// CountryNames returns the names of the loaded country associations.
func (m *Map) CountryNames() []string {
	names := make([]string, 0, len(m.Countries))
	for _, mc := range m.Countries {
		if mc.Country != nil {
			names = append(names, mc.Country.Name)
		}
	}
	return names
}

// Place types.
const (
	PlaceTypeMarker = "marker"
	PlaceTypeCircle = "circle"
)

// Place is a geo-located annotation owned by exactly one map.
type Place struct {
	ID          int64   `gorm:"primaryKey;column:id" json:"id"`
	MapID       int64   `gorm:"column:map_id;not null;index" json:"map_id"`
	Type        string  `gorm:"column:type;size:16;not null" json:"type"`
	Name        *string `gorm:"column:name;size:120" json:"name,omitempty"`
	Description *string `gorm:"column:description;type:text" json:"description,omitempty"`
	X           float64 `gorm:"column:x;not null" json:"x"`
	Y           float64 `gorm:"column:y;not null" json:"y"`
	Radius      float64 `gorm:"column:radius;not null;default:0" json:"radius,omitempty"`
	Color       *string `gorm:"column:color;size:16" json:"color,omitempty"`
	Country     *string `gorm:"column:country;size:100" json:"country,omitempty"`
	Photo       *string `gorm:"column:photo" json:"-"`
}

// TableName returns the table name for GORM
func (Place) TableName() string {
	return "places"
}
