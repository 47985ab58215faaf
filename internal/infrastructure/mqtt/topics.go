package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every NeuroAIR topic.
const TopicPrefix = "neuroair"

// Topics builds NeuroAIR MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Command("neuroair-1")     // neuroair/command/neuroair-1
//	topics.State("neuroair-1")       // neuroair/state/neuroair-1
//	topics.Recognition("neuroair-1") // neuroair/recognition/neuroair-1
type Topics struct{}

// Command returns the topic the appliance firmware listens on.
func (Topics) Command(deviceID string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, deviceID)
}

// State returns the retained state topic for a device.
func (Topics) State(deviceID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, deviceID)
}

// Recognition returns the topic on which speech/emotion results for a
// device arrive.
func (Topics) Recognition(deviceID string) string {
	return fmt.Sprintf("%s/recognition/%s", TopicPrefix, deviceID)
}

// Outcome returns the topic on which dispatch outcomes for a device are
// announced.
func (Topics) Outcome(deviceID string) string {
	return fmt.Sprintf("%s/outcome/%s", TopicPrefix, deviceID)
}

// SystemStatus returns the retained Core online/offline topic.
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// AllRecognition matches recognition results for every device.
func (Topics) AllRecognition() string {
	return TopicPrefix + "/recognition/+"
}

// AllStates matches the state topic of every device.
func (Topics) AllStates() string {
	return TopicPrefix + "/state/+"
}

// DeviceFromTopic returns the trailing device id segment of a
// per-device topic such as neuroair/recognition/neuroair-1.
func DeviceFromTopic(topic string) (string, bool) {
	i := strings.LastIndexByte(topic, '/')
	if i < 0 || i == len(topic)-1 {
		return "", false
	}
	return topic[i+1:], true
}
