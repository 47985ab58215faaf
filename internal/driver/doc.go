// Package driver implements device.Driver for the NeuroAIR appliance.
//
// Two drivers are provided:
//
//   - MQTTDriver publishes JSON commands to neuroair/command/{device},
//     where the appliance firmware picks them up.
//   - LogDriver only logs what it would have sent; it is the driver for
//     development machines without an appliance attached.
//
// StatePublisher mirrors controller state to the retained
// neuroair/state/{device} topic so dashboards and the firmware always see
// the latest state. It coalesces bursts and never blocks the controller.
//
// # Usage
//
//	drv := driver.NewMQTTDriver(mqttClient)
//	ctrl := device.NewController(cfg, catalog, drv)
//
//	states := driver.NewStatePublisher(mqttClient)
//	go states.Run(ctx)
//	ctrl.AddObserver(states)
package driver
