// pkg/core/mission.go
package core

import "time"

// MissionType is the kind of work a mission represents. TaskIdle is the
// sentinel a vehicle carries when it has no assignment.
type MissionType string

const (
	TaskSurvey     MissionType = "survey"
	TaskPatrol     MissionType = "patrol"
	TaskMonitoring MissionType = "monitoring"
	TaskInspection MissionType = "inspection"
	TaskMapping    MissionType = "mapping"
	TaskIdle       MissionType = "idle"
)

// IsValid reports whether t is an assignable mission type. TaskIdle is
// not assignable: it marks the absence of a task.
func (t MissionType) IsValid() bool {
	switch t {
	case TaskSurvey, TaskPatrol, TaskMonitoring, TaskInspection, TaskMapping:
		return true
	}
	return false
}

func (t MissionType) String() string { return string(t) }

// MissionStatus is the lifecycle state of a mission.
type MissionStatus string

const (
	MissionPending   MissionStatus = "pending"
	MissionActive    MissionStatus = "active"
	MissionCompleted MissionStatus = "completed"
	MissionFailed    MissionStatus = "failed"
)

func (s MissionStatus) String() string { return string(s) }

// Mission is a unit of work over an area. AssignedVehicles is ordered;
// it is mutated only together with the vehicles' Task fields, and only
// by the coordinator. Missions are never deleted; MissionFailed is
// reachable only by an explicit call.
type Mission struct {
	ID               string        `json:"missionId"`
	Type             MissionType   `json:"type"`
	Area             AreaBounds    `json:"areaBounds"`
	AssignedVehicles []string      `json:"assignedVehicles"`
	Priority         int           `json:"priority"`
	Status           MissionStatus `json:"status"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// Active reports whether the mission is currently active.
func (m *Mission) Active() bool { return m.Status == MissionActive }
