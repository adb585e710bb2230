// Package report pushes proactive state reports to vendor clouds.
//
// After the bridge applies a device state change it hands the username
// and device ID to the publisher, which renders the device's current
// state once per vendor and POSTs it to the Alexa event gateway and the
// Google HomeGraph endpoint. A push only happens when the vendor is
// configured with a credential and the user has linked that vendor.
// Delivery is best effort with no retry.
package report
