package models

// UserProfile is denormalized user metadata keyed by the external identity
// provider's id. Rows are overwritten wholesale on upsert; never deleted.
type UserProfile struct {
	ID       string  `gorm:"column:id;type:varchar(255);primaryKey"`
	Name     *string `gorm:"column:name;type:varchar(255)"`
	ImageURI *string `gorm:"column:image_uri;type:text"`
	Contact  *string `gorm:"column:contact;type:varchar(50)"`
	Address  *string `gorm:"column:address;type:text"`
}

// TableName keeps the original table name used by the mobile deployments.
func (UserProfile) TableName() string {
	return "users"
}
