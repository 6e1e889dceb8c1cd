package models

import (
	"encoding/json"
	"time"
)

// PushRequest is the body of POST /sync/push: payloads grouped by plural
// entity-type key ("methods", "experiments", ...). Identity travels in
// headers, not in the body.
type PushRequest struct {
	Batches map[string][]json.RawMessage
}

// MarshalJSON flattens the batch map so the body is exactly
// {"methods": [...], "experiments": [...]} with no wrapper object.
func (r PushRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Batches)
}

// PushConflict is one server-reported version disagreement in a push
// response. ServerData is optional; the server omits it for large payloads.
type PushConflict struct {
	ID            string          `json:"id"`
	EntityType    string          `json:"entityType,omitempty"`
	ServerVersion int64           `json:"serverVersion"`
	ClientVersion int64           `json:"clientVersion"`
	ServerData    json.RawMessage `json:"serverData,omitempty"`
}

// PushResponse is the decoded body of a successful push.
type PushResponse struct {
	Applied   []string       `json:"applied"`
	Conflicts []PushConflict `json:"conflicts"`
}

// PullQuery parameterises GET /sync/pull. Selective-sync constraints are
// embedded so filtering happens server-side where possible; the client filter
// is reapplied locally as a second guard.
type PullQuery struct {
	Since      *time.Time
	Projects   []string
	Modalities []string
	DateStart  *time.Time
	DateEnd    *time.Time
}

// PullResponse groups changed records by plural entity-type key.
type PullResponse struct {
	Collections map[string][]json.RawMessage
}

// UnmarshalJSON accepts the flat {"methods": [...], ...} body.
func (r *PullResponse) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &r.Collections)
}
