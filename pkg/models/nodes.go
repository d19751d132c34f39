package models

import "time"

// Node is the list-view representation of an operator's node.
type Node struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Status          NodeState  `json:"status"`
	PublicIP        string     `json:"public_ip"`
	Port            int        `json:"port"`
	Version         string     `json:"version"`
	LastHeartbeat   *time.Time `json:"last_heartbeat,omitempty"`
	CurrentSessions int        `json:"current_sessions"`
	TotalSessions   int        `json:"total_sessions"`
	OnlineSeconds   int64      `json:"online_seconds"`
	TotalTrafficGB  float64    `json:"total_traffic_gb"`
	IsVerified      bool       `json:"is_verified"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NodeDetail extends Node with fields only present on the detail view.
type NodeDetail struct {
	Node
	OwnerWallet        string        `json:"owner_wallet"`
	PublicKey          string        `json:"public_key"`
	Hardware           *HardwareInfo `json:"hardware,omitempty"`
	TotalUptimeSeconds int64         `json:"total_uptime_seconds"`
	TotalDataBytes     int64         `json:"total_data_bytes"`
}

// HardwareInfo is the hardware summary a node reports at registration.
type HardwareInfo struct {
	Hostname string `json:"hostname"`
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	CPUCores int    `json:"cpu_cores"`
	MemoryGB int    `json:"memory_gb"`
	DiskGB   int    `json:"disk_gb"`
}

// NodeStats is a server-side aggregate over a trailing window. It is
// read-only: the client renders it and never recomputes or mutates it.
type NodeStats struct {
	NodeID            string      `json:"node_id"`
	PeriodDays        int         `json:"period_days"`
	UptimePercent     float64     `json:"uptime_percent"`
	TotalTrafficGB    float64     `json:"total_traffic_gb"`
	TotalSessions     int         `json:"total_sessions"`
	ActiveSessions    int         `json:"active_sessions"`
	AvgSessionSeconds float64     `json:"avg_session_seconds"`
	Daily             []DailyStat `json:"daily,omitempty"`
}

// DailyStat is one day of a stats window.
type DailyStat struct {
	Date          string  `json:"date"` // YYYY-MM-DD
	TrafficGB     float64 `json:"traffic_gb"`
	Sessions      int     `json:"sessions"`
	OnlineSeconds int64   `json:"online_seconds"`
}

// Session is a client connection served by a node.
type Session struct {
	ID              string       `json:"id"`
	SessionID       string       `json:"session_id"`
	ClientWallet    string       `json:"client_wallet"`
	BytesIn         int64        `json:"bytes_in"`
	BytesOut        int64        `json:"bytes_out"`
	TotalBytesMB    float64      `json:"total_bytes_mb"`
	StartedAt       time.Time    `json:"started_at"`
	EndedAt         *time.Time   `json:"ended_at,omitempty"`
	DurationSeconds int64        `json:"duration_seconds"`
	Status          SessionState `json:"status"`
}
