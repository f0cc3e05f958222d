package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Export targets understood by the worker.
const (
	TargetSheets = "sheets"
	TargetFile   = "file"
)

var ErrInvalidRequest = errors.New("invalid export request")

// ExportRequest asks the worker to rebuild and publish the escadinha of a
// year. The worker reads the goals itself, so the message stays small.
type ExportRequest struct {
	JobID     string    `json:"job_id"`
	Year      int       `json:"year"`
	Target    string    `json:"target"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExportRequest(year int, target string) *ExportRequest {
	return &ExportRequest{
		JobID:     uuid.NewString(),
		Year:      year,
		Target:    target,
		Timestamp: time.Now(),
	}
}

func (m *ExportRequest) Validate() error {
	if _, err := uuid.Parse(m.JobID); err != nil {
		return fmt.Errorf("%w: job id %q", ErrInvalidRequest, m.JobID)
	}
	if m.Year < 2000 || m.Year > 2100 {
		return fmt.Errorf("%w: year %d", ErrInvalidRequest, m.Year)
	}
	switch m.Target {
	case TargetSheets, TargetFile:
	default:
		return fmt.Errorf("%w: target %q", ErrInvalidRequest, m.Target)
	}
	return nil
}

func (m *ExportRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportRequestFromJSON decodes and validates a message body.
func ExportRequestFromJSON(data []byte) (*ExportRequest, error) {
	var msg ExportRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
