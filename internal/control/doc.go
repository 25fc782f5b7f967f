// Package control negotiates exclusive behaviour control with the robot.
//
// The Arbiter holds one bidirectional BehaviorControl stream. It requests
// control at a fixed priority and, whenever the robot reports control lost,
// requests it again at the same priority. It never gives up while Run is
// active:
//
//	Idle --Run--> Requesting --granted--> Granted --lost--> Lost --re-request--> Requesting
//
// Suppression listeners observe true on every grant and false on every loss,
// and false once more when Run exits while control was held.
//
// PriorityOverrideBehaviors also suppresses the robot's safety behaviours
// (cliff, low battery). Callers must opt in to it explicitly.
package control
