package models

// UserProfile is the read-mostly author record looked up on demand and
// cached for the session, keyed by UID.
type UserProfile struct {
	UID         string
	DisplayName string
	Username    string
	Region      string
	PhotoRef    string
}

// DecodeUserProfile builds a UserProfile from raw record fields.
func DecodeUserProfile(uid string, fields map[string]any) UserProfile {
	return UserProfile{
		UID:         uid,
		DisplayName: stringField(fields, "name", "displayName"),
		Username:    stringField(fields, "username"),
		Region:      stringField(fields, "state"),
		PhotoRef:    stringField(fields, "photoUrl"),
	}
}

// Handle returns the preferred display handle: @username when present,
// else the display name, else "Anónimo" like the rest of the product.
func (u UserProfile) Handle() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return "Anónimo"
}
