package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fs-bullard/sl-wb-pi-api/internal/logging"
)

// LogEntryData is one log line from the in-memory ring buffer.
type LogEntryData struct {
	Timestamp  string         `json:"timestamp" doc:"Log timestamp (RFC 3339 with nanoseconds)"`
	Level      string         `json:"level" example:"INFO" doc:"Log level"`
	Module     string         `json:"module" example:"capture" doc:"Module that emitted the line"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

// LogsInput selects how many recent entries to return.
type LogsInput struct {
	Limit int `query:"limit" default:"100" minimum:"1" maximum:"1000" doc:"Maximum number of entries, newest last"`
}

// LogsResponse wraps the returned log entries.
type LogsResponse struct {
	Body struct {
		Entries []LogEntryData `json:"entries" doc:"Recent log entries, oldest first"`
		Count   int            `json:"count" example:"100" doc:"Number of entries returned"`
	}
}

// registerLogRoutes registers the recent-logs endpoint backed by the
// logging ring buffer.
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent Logs",
		Description: "Get recent log entries from the in-memory ring buffer",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *LogsInput) (*LogsResponse, error) {
		resp := &LogsResponse{}
		buffer := logging.GetBuffer()
		if buffer == nil {
			resp.Body.Entries = []LogEntryData{}
			return resp, nil
		}

		entries := buffer.ReadLast(input.Limit)
		resp.Body.Entries = make([]LogEntryData, 0, len(entries))
		for _, entry := range entries {
			resp.Body.Entries = append(resp.Body.Entries, LogEntryData{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		}
		resp.Body.Count = len(resp.Body.Entries)
		return resp, nil
	})
}
