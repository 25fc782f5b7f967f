package mqtt

import "fmt"

// Topic prefixes for vectorlink.
const (
	// TopicPrefix is the root of every vectorlink topic.
	TopicPrefix = "vectorlink"

	// TopicPrefixRobot is the base for per-robot topics.
	TopicPrefixRobot = TopicPrefix + "/robot"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = TopicPrefix + "/system"
)

// Topics provides builders for vectorlink MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.RobotEvent("Vector-A1B2", "wake_word")
//	// Returns: "vectorlink/robot/Vector-A1B2/event/wake_word"
type Topics struct{}

// SystemStatus returns the topic for vectorlink's own online status.
//
// Example: vectorlink/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// RobotEvent returns the topic for one event type from a robot.
//
// Example: vectorlink/robot/Vector-A1B2/event/robot_state
func (Topics) RobotEvent(deviceID, eventType string) string {
	return fmt.Sprintf("%s/%s/event/%s", TopicPrefixRobot, deviceID, eventType)
}

// RobotControl returns the retained topic for a robot's suppression state.
//
// Example: vectorlink/robot/Vector-A1B2/control
func (Topics) RobotControl(deviceID string) string {
	return fmt.Sprintf("%s/%s/control", TopicPrefixRobot, deviceID)
}

// RobotBattery returns the retained topic for a robot's battery snapshot.
//
// Example: vectorlink/robot/Vector-A1B2/battery
func (Topics) RobotBattery(deviceID string) string {
	return fmt.Sprintf("%s/%s/battery", TopicPrefixRobot, deviceID)
}

// AllRobotEvents returns a wildcard matching every event from every robot.
//
// Example: vectorlink/robot/+/event/#
func (Topics) AllRobotEvents() string {
	return TopicPrefixRobot + "/+/event/#"
}
