package domain

// Tag is a shared keyword. Quantity is the number of maps linked to it and the
// row only exists while Quantity is positive.
type Tag struct {
	ID       int64    `gorm:"primaryKey;column:id" json:"id"`
	Name     string   `gorm:"column:name;size:64;uniqueIndex;not null" json:"name"`
	Quantity RefCount `gorm:"column:quantity;not null;default:0;index" json:"quantity"`

	// Relationships
	Maps []Map `gorm:"many2many:map_tags;" json:"-"`
}

// TableName returns the table name for GORM
func (Tag) TableName() string {
	return "tags"
}
