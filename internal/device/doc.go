// Package device provides the device model and persistence for
// voice-controllable endpoints.
//
// Each device belongs to a single user and declares a capability set
// that drives vendor discovery and command translation. The canonical
// state map uses the Field* constants defined in this package; a single
// "time" entry records when the state was last mutated.
//
// Persistence is SQLite-backed (SQLiteRepository) and fronted by a
// caching Registry so directive handling never blocks on the database.
package device
