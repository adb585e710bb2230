// Package google implements the Google smart home fulfillment surface:
// SYNC discovery, QUERY state projection, EXECUTE command translation,
// and DISCONNECT account unlinking.
//
// Per-device failures are reported in-band in the EXECUTE response as
// the intent protocol requires; successful executions return the
// optimistic state computed at translation time once the device
// acknowledges over MQTT.
package google
