package domain

import "strings"

// ProgressRecord is one document's reading state for one user, in the wire
// shape KOReader's progress sync API uses. Document is an opaque identifier
// minted by the device (usually a lowercase hex MD5). Progress is a
// device-specific position string (e.g. "/body/DocFragment[20]/body/p[22]")
// and is stored and returned verbatim.
type ProgressRecord struct {
	Document   string  `json:"document"`
	Percentage float64 `json:"percentage"`
	Progress   string  `json:"progress"`
	Device     string  `json:"device"`
	DeviceID   string  `json:"device_id,omitempty"`

	// Timestamp is Unix seconds, assigned by the server at write time.
	// Whatever the client sends here is discarded.
	Timestamp int64 `json:"timestamp"`
}

// Validate checks the fields the sync protocol requires on an update.
func (p *ProgressRecord) Validate() error {
	if isBlank(p.Document) {
		return &ValidationError{Field: "document", Message: "document identifier is required"}
	}
	if isBlank(p.Progress) {
		return &ValidationError{Field: "progress", Message: "progress position is required"}
	}
	if isBlank(p.Device) {
		return &ValidationError{Field: "device", Message: "device name is required"}
	}
	return nil
}

// UpdateAck is the response to a progress update. Timestamp is the stored
// record's timestamp, which is the existing one when an update was behind
// the record already on file.
type UpdateAck struct {
	Document  string `json:"document"`
	Timestamp int64  `json:"timestamp"`
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
