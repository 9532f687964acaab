package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the fixed-width record timestamp format. Timestamps are
// always UTC, so lexicographic order matches chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a record timestamp. It accepts TimestampLayout with
// any number of fractional digits, and RFC 3339 with an explicit offset.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// Payload is the structured JSON object returned by the language model.
type Payload map[string]any

// Analysis is a typed view over a Payload, used for display.
type Analysis struct {
	ClientSummary   ClientSummary    `json:"client_summary"`
	Recommendations []Recommendation `json:"recommendations"`
}

// ClientSummary is the model's overview of the client.
type ClientSummary struct {
	ProfileOverview string   `json:"profile_overview"`
	RiskAssessment  string   `json:"risk_assessment"`
	KeyInsights     []string `json:"key_insights"`
}

// Recommendation is one ranked product suggestion.
type Recommendation struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Reason      string  `json:"reason"`
	RiskLevel   string  `json:"risk_level"`
	Priority    string  `json:"priority"`
	Confidence  float64 `json:"confidence"`
}

// DecodeAnalysis converts a payload into its typed view. Missing fields are
// left zero; it only fails when the payload cannot be re-encoded or has
// fields of the wrong JSON type.
func DecodeAnalysis(p Payload) (Analysis, error) {
	var a Analysis
	data, err := json.Marshal(p)
	if err != nil {
		return a, fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("failed to decode analysis: %w", err)
	}
	return a, nil
}

// AnalysisRecord is one persisted outcome of a successful model call.
type AnalysisRecord struct {
	ID           string  `json:"id,omitempty"`
	ClientID     string  `json:"client_id"`
	AnalysisData Payload `json:"analysis_data"`
	Timestamp    string  `json:"timestamp"`
	CreatedAt    string  `json:"created_at"`
}

// Time returns the parsed record timestamp.
func (r AnalysisRecord) Time() (time.Time, error) {
	return ParseTimestamp(r.Timestamp)
}

// HistoryEntry is the stored value for one client: either a single legacy
// record or a list of records. It round-trips through JSON in the same shape
// it was read in.
type HistoryEntry struct {
	Records []AnalysisRecord
	Legacy  bool
}

// MarshalJSON renders a legacy entry as an object and any other entry as an array.
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	if e.Legacy && len(e.Records) == 1 {
		return json.Marshal(e.Records[0])
	}
	if e.Records == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(e.Records)
}

// UnmarshalJSON accepts either a record object or an array of records.
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty history entry")
	}

	if trimmed[0] == '[' {
		var records []AnalysisRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return fmt.Errorf("failed to decode record list: %w", err)
		}
		e.Records = records
		e.Legacy = false
		return nil
	}

	var record AnalysisRecord
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return fmt.Errorf("failed to decode legacy record: %w", err)
	}
	e.Records = []AnalysisRecord{record}
	e.Legacy = true
	return nil
}

// Len returns the number of records in the entry.
func (e HistoryEntry) Len() int {
	return len(e.Records)
}

// Envelope is the response to an analysis request.
type Envelope struct {
	Client     ClientProfile `json:"client"`
	AIAnalysis Payload       `json:"ai_analysis"`
	Status     string        `json:"status"`
	RecordID   string        `json:"record_id,omitempty"`
}
