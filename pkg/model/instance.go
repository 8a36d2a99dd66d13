package model

// InstanceType classifies the kind of work an instance generates.
type InstanceType string

const (
	InstanceTypeCircle   InstanceType = "circle"
	InstanceTypeQuest    InstanceType = "quest"
	InstanceTypeIVQueue  InstanceType = "iv_queue"
	InstanceTypeLeveling InstanceType = "leveling"
)

// Instance is a named logical work unit that devices are assigned to.
// The scheduler only consumes the geofence list (for quest clearing);
// task generation for an instance lives in the job-controller subsystem.
type Instance struct {
	Name      string       `json:"name"`
	Type      InstanceType `json:"type"`
	Geofences []string     `json:"geofences,omitempty"`
}

// Geofence is a named geometry. Data is the raw geometry payload; the
// scheduler passes it through to the quest store without interpreting it.
type Geofence struct {
	Name string         `json:"name"`
	Type string         `json:"type,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}
