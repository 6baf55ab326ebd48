package model

import "time"

// URI marks an attribute value that should be written as a URI object
// instead of a literal.
type URI string

// Ref points at another domain entity by id and name, enough to derive
// its deterministic URI.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Actor is a character participating in a scenario.
type Actor struct {
	ID         int64          `json:"id"`
	ScenarioID *int64         `json:"scenario_id,omitempty"`
	Name       string         `json:"name"`
	Role       string         `json:"role,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Event is something that happened at a point in time within a scenario.
type Event struct {
	ID           int64          `json:"id"`
	ScenarioID   *int64         `json:"scenario_id,omitempty"`
	Description  string         `json:"description"`
	EventTime    *time.Time     `json:"event_time,omitempty"`
	Participants []Ref          `json:"participants,omitempty"`
	GeneratedBy  *Ref           `json:"generated_by,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
}

// Action is a deliberate act taken by an actor within a scenario.
type Action struct {
	ID         int64          `json:"id"`
	ScenarioID *int64         `json:"scenario_id,omitempty"`
	Name       string         `json:"name"`
	Actor      *Ref           `json:"actor,omitempty"`
	ActionTime *time.Time     `json:"action_time,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}
