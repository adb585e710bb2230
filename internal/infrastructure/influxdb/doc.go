// Package influxdb provides InfluxDB connectivity for VoiceLink Core.
//
// It wraps the official influxdb-client-go v2 library for recording
// device-state history. Every committed state mutation is written as a
// point tagged by owner and device, giving operators a queryable record of
// what the fleet reported over time.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteStateChange("alice", "thermostat-1",
//	    map[string]any{"thermostatSetPoint": 21.5}, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Writes are non-blocking; batch errors are delivered via the SetOnError
// callback and logged. A failed write is dropped, never retried by us.
package influxdb
