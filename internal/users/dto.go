package users

// UpsertInput carries the profile fields the mobile client may send. Absent
// fields overwrite with NULL: the client always sends the full profile.
type UpsertInput struct {
	UserID   string
	Name     *string
	ImageURI *string
	Contact  *string
	Address  *string
}
