package user

import "time"

// User is an account that owns devices and has linked one or both
// voice vendors. The username doubles as the account key in MQTT
// topics, so it must stay URL- and topic-safe.
type User struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`

	// Vendor link flags. Reporting to a vendor is skipped when the
	// user has not linked it, regardless of service credentials.
	AlexaLinked  bool `json:"alexa_linked"`
	GoogleLinked bool `json:"google_linked"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LinkedTo reports whether the user has linked the named vendor.
// Known vendor names are "alexa" and "google".
func (u *User) LinkedTo(vendor string) bool {
	switch vendor {
	case "alexa":
		return u.AlexaLinked
	case "google":
		return u.GoogleLinked
	}
	return false
}
