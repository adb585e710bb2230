// Package capability defines the canonical device capability model and the
// static bidirectional tables mapping it to each vendor's interface and
// trait identifiers.
//
// The tables are pure and stateless: translation of identifiers never
// touches device state or the network. Vendor payload translation lives in
// the vendor packages (internal/alexa, internal/google); this package only
// answers "what does vendor X call this capability" and the reverse.
package capability
