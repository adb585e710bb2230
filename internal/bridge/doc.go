// Package bridge is the command/state core: it carries vendor-issued
// commands to devices over MQTT and folds device-reported state back
// into the canonical store.
//
// The outbound path registers a PendingCommand in the CorrelationTable
// before publishing, so an acknowledgement can never race its own
// registration. The inbound path routes response/# messages to the
// Dispatcher and state/# messages to the Mutator. The Sweeper resolves
// anything the devices never answered, giving every dispatched command
// exactly one terminal outcome.
package bridge
