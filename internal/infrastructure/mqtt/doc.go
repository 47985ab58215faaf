// Package mqtt provides the MQTT client used as the NeuroAIR device bus.
//
// The broker carries three kinds of traffic:
//   - commands from Core to the appliance firmware
//   - retained device state published by Core after every change
//   - recognition results from an external audio processor
//
// # Architecture
//
//	audio processor ──► neuroair/recognition/{device} ──► Core
//	Core ──► neuroair/command/{device} ──► appliance firmware
//	Core ──► neuroair/state/{device} (retained)
//	Core ──► neuroair/system/status (retained, LWT)
//
// The client reconnects automatically and restores its subscriptions on
// every reconnect. A Last Will message marks Core offline if the process
// dies without closing the connection.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllRecognition(), 1,
//	    func(topic string, payload []byte) error {
//	        return handle(payload)
//	    })
//
//	err = client.PublishJSON(mqtt.Topics{}.Command("neuroair-1"), cmd, false)
package mqtt
