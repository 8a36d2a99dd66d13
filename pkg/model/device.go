package model

import "time"

// Device is a remote scanning device. InstanceName is the work unit the
// device is currently executing; the scheduler is its sole intended
// writer (modulo direct administrative edits).
type Device struct {
	UUID         string     `json:"uuid"`
	InstanceName string     `json:"instance_name,omitempty"`
	LastHost     string     `json:"last_host,omitempty"`
	LastSeen     *time.Time `json:"last_seen,omitempty"`
}

// DeviceGroup is a named, non-empty list of device uuids. Membership is
// resolved fresh on every trigger, never cached.
type DeviceGroup struct {
	Name        string   `json:"name"`
	DeviceUUIDs []string `json:"device_uuids"`
}
