package model

import "testing"

func TestAssignment_OnCompleteOnly(t *testing.T) {
	a := Assignment{Time: 0}
	if !a.OnCompleteOnly() {
		t.Error("time 0 should be completion-driven")
	}
	a.Time = 1
	if a.OnCompleteOnly() {
		t.Error("time 1 should be clock-driven")
	}
}

func TestAssignment_Actionable(t *testing.T) {
	tests := []struct {
		name string
		a    Assignment
		want bool
	}{
		{"neither", Assignment{}, false},
		{"device only", Assignment{DeviceUUID: "dev1"}, true},
		{"group only", Assignment{DeviceGroupName: "fleet-1"}, true},
		{"both", Assignment{DeviceUUID: "dev1", DeviceGroupName: "fleet-1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Actionable(); got != tt.want {
				t.Errorf("Actionable() = %t, want %t", got, tt.want)
			}
		})
	}
}
