package models

import (
	"github.com/smazurov/lightnode/internal/display"
	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/metrics"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
	Node    string `json:"node" example:"bedroom" doc:"Node name"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.0.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc123" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2024-01-01T00:00:00Z" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"42" doc:"Build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Go compiler"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"OS and architecture"`
}

type VersionResponse struct {
	Body VersionData
}

// State models
type StateResponse struct {
	Body display.State
}

type EffectsData struct {
	Effects []string `json:"effects" doc:"Registered effects in cycle order"`
	Active  string   `json:"active" example:"sparkle" doc:"Active effect"`
}

type EffectsResponse struct {
	Body EffectsData
}

// Command models
type CommandData struct {
	Kind       string `json:"kind" enum:"power_on,power_off,toggle,set_brightness,select_effect,set_color,brightness_up,brightness_down,next_effect,previous_effect,nudge" doc:"Command kind"`
	Brightness *int   `json:"brightness,omitempty" minimum:"0" maximum:"100" example:"70" doc:"Brightness for set_brightness"`
	Effect     string `json:"effect,omitempty" example:"sparkle" doc:"Effect name for select_effect"`
	Color      string `json:"color,omitempty" example:"#ff8800" doc:"Color for set_color, #rrggbb or r,g,b"`
}

type CommandRequest struct {
	Body CommandData
}

type LightRequest struct {
	RawBody []byte `contentType:"application/json" doc:"JSON light command, e.g. {\"state\":\"ON\",\"brightness\":70}"`
}

type AcceptedData struct {
	Commands []string `json:"commands" doc:"Commands queued, in order"`
}

type AcceptedResponse struct {
	Status int
	Body   AcceptedData
}

// Log models
type LogsRequest struct {
	Limit  int    `query:"limit" minimum:"0" maximum:"500" default:"100" doc:"Maximum number of entries"`
	Module string `query:"module" example:"display" doc:"Only entries of this module"`
}

type LogsData struct {
	Entries []logging.Entry `json:"entries" doc:"Recent log entries, oldest first"`
	Count   int             `json:"count" doc:"Number of entries"`
}

type LogsResponse struct {
	Body LogsData
}

type LogLevelsResponse struct {
	Body map[string]string
}

type SetLogLevelRequest struct {
	Module string `path:"module" example:"display" doc:"Logger module"`
	Body   struct {
		Level string `json:"level" enum:"debug,info,warn,error" doc:"New level"`
	}
}

// Metrics models
type MetricsResponse struct {
	Body metrics.Snapshot
}

// LED models
type LEDRequest struct {
	Body struct {
		Name    string  `json:"name" example:"act" doc:"Board LED name"`
		Enabled bool    `json:"enabled" example:"true" doc:"Whether the LED should be on"`
		Pattern *string `json:"pattern,omitempty" example:"solid" doc:"Optional pattern (solid, blink, heartbeat)"`
	}
}

type LEDCapabilitiesData struct {
	Available []string `json:"available" doc:"LED names on this board"`
	Patterns  []string `json:"patterns" doc:"Supported patterns"`
	Status    string   `json:"status" doc:"LED mirroring the strip state"`
	Pattern   string   `json:"pattern" doc:"Pattern currently shown on the status LED"`
}

type LEDCapabilitiesResponse struct {
	Body LEDCapabilitiesData
}
