package model

// DateLayout is the calendar-date format used by Assignment.Date.
const DateLayout = "2006-01-02"

// Assignment is a scheduling rule. When it fires, the device (or every
// member of the device group) it names is moved onto InstanceName.
type Assignment struct {
	ID           uint64 `json:"id"`
	InstanceName string `json:"instance_name"`

	// SourceInstanceName restricts the rule to devices currently on that
	// instance. It is also the dependency edge for chain resolution: this
	// assignment is fed by whichever assignment puts devices onto it.
	SourceInstanceName string `json:"source_instance_name,omitempty"`

	// Exactly one of DeviceUUID / DeviceGroupName identifies the affected
	// devices. A rule with neither set is inert and logged as a
	// configuration error when triggered.
	DeviceUUID      string `json:"device_uuid,omitempty"`
	DeviceGroupName string `json:"device_group_name,omitempty"`

	// Time is seconds since local midnight at which the rule fires.
	// Zero means the rule only fires on an instance-completion
	// notification, never on the clock.
	Time uint32 `json:"time"`

	// Date restricts the rule to a single calendar day (DateLayout).
	// Empty means every day.
	Date string `json:"date,omitempty"`

	Enabled bool `json:"enabled"`
}

// OnCompleteOnly reports whether this rule is completion-driven rather
// than clock-driven.
func (a *Assignment) OnCompleteOnly() bool {
	return a.Time == 0
}

// Actionable reports whether the rule names at least one device target.
func (a *Assignment) Actionable() bool {
	return a.DeviceUUID != "" || a.DeviceGroupName != ""
}

// AssignmentGroup names an ordered list of assignments that are
// force-triggered together.
type AssignmentGroup struct {
	Name          string   `json:"name"`
	AssignmentIDs []uint64 `json:"assignment_ids"`
}
