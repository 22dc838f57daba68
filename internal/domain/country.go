package domain

// Country is a shared geographic label. It has no counter of its own; the
// per-map attribution count lives on MapCountry.
type Country struct {
	ID   int64  `gorm:"primaryKey;column:id" json:"id"`
	Name string `gorm:"column:name;size:100;uniqueIndex;not null" json:"name"`

	// Relationships
	MapCountries []MapCountry `gorm:"foreignKey:CountryID" json:"-"`
}

// TableName returns the table name for GORM
func (Country) TableName() string {
	return "countries"
}

// MapCountry joins a map and a country. ConnectionCount is the number of
// attributions (places or explicit adds); the row is removed at zero.
type MapCountry struct {
	MapID           int64    `gorm:"primaryKey;column:map_id;autoIncrement:false" json:"map_id"`
	CountryID       int64    `gorm:"primaryKey;column:country_id;autoIncrement:false" json:"country_id"`
	ConnectionCount RefCount `gorm:"column:connection_count;not null;default:1" json:"connection_count"`

	// Relationships
	Country *Country `gorm:"foreignKey:CountryID" json:"country,omitempty"`
}

// TableName returns the table name for GORM
func (MapCountry) TableName() string {
	return "map_countries"
}
