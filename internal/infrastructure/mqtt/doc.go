// Package mqtt provides MQTT client connectivity for VoiceLink Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is the only path to the field devices. Vendor HTTP requests are
// translated into canonical commands published on per-owner, per-device
// topics; devices answer asynchronously on the response and state topics.
//
//	Voice assistant → VoiceLink Core → MQTT Broker → Field devices
//
// # Topic scheme
//
//	command/{username}/{deviceId}   commands to a device
//	response/{username}/{deviceId}  command acknowledgements
//	state/{username}/{deviceId}     unsolicited state reports
//	message/{username}/{deviceId}   client notifications
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllResponses(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
package mqtt
