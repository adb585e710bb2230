package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteStateChange records the numeric and boolean fields of a committed
// device-state mutation as a single time-series point.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Non-numeric fields (input names, playback modes) are skipped: they belong
// in the device store, not the time-series history.
//
// Parameters:
//   - username: The device owner
//   - deviceID: The device identifier
//   - changed: The state fields committed by the mutation
//   - at: The mutation timestamp (the state map's time value)
func (c *Client) WriteStateChange(username, deviceID string, changed map[string]any, at time.Time) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]interface{}, len(changed))
	for name, v := range changed {
		switch val := v.(type) {
		case float64:
			fields[name] = val
		case int:
			fields[name] = float64(val)
		case bool:
			fields[name] = val
		}
	}
	if len(fields) == 0 {
		return
	}

	point := write.NewPoint(
		"device_state",
		map[string]string{
			"username":  username,
			"device_id": deviceID,
		},
		fields,
		at,
	)

	c.writeAPI.WritePoint(point)
}
