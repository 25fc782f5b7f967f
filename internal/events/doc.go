// Package events runs the robot's event subscription and fans events out
// to typed listeners.
//
// One Dispatcher owns at most one subscription at a time. Run blocks for the
// life of the subscription and delivers events in the order received:
//
//   - wake_word: OnWakeWord listeners, then OnAnyEvent listeners
//   - robot_state: OnRobotState listeners, once per event
//   - every other type: discarded
//
// Listeners run synchronously on the Run goroutine; a slow listener delays
// the next Recv. Listeners must not call Run.
package events
