// Package alexa implements the Alexa Smart Home v3 surface: directive
// translation into canonical commands, endpoint discovery, and state
// projection into context properties.
//
// Directive dispatch is a registry lookup keyed by (namespace, name);
// responses to control directives are computed optimistically at
// translation time and released when the device acknowledges over MQTT.
package alexa
