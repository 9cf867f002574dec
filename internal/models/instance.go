package models

import "time"

// MonitoringState mirrors the EC2 detailed monitoring state of an instance.
type MonitoringState string

const (
	MonitoringDisabled MonitoringState = "disabled"
	MonitoringPending  MonitoringState = "pending"
	MonitoringEnabled  MonitoringState = "enabled"
)

// InstanceInfo represents a running EC2 instance as seen by one evaluation.
type InstanceInfo struct {
	InstanceID       string
	Name             string
	InstanceType     string
	Region           string
	AvailabilityZone string
	LaunchTime       time.Time
	Tags             map[string]string
	Monitoring       MonitoringState
}

// UtilizationSample is a single averaged CPUUtilization datapoint.
type UtilizationSample struct {
	Timestamp time.Time
	Average   float64
}
