// Package user provides account storage for device owners.
//
// Usernames are embedded in MQTT topics, so they are validated to be
// topic-safe. Vendor link flags gate proactive state reporting: a
// change report is only pushed to a vendor the user has linked.
package user
