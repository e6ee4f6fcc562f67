package observability

import (
	"encoding/json"
	"log/slog"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"flashpool/core/events"
	"flashpool/core/types"
)

type attributed interface {
	Event() *types.Event
}

type auditRecord struct {
	Timestamp  string            `json:"timestamp"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// AuditJournal appends every ledger event as a JSON line to a
// size-rotated file. The event stream is the only durable trace the
// accounting core produces, so the journal is the audit record external
// systems consume.
type AuditJournal struct {
	sink *lumberjack.Logger
}

// NewAuditJournal opens (or creates) the journal at path with rotation at
// 64 MiB keeping ten compressed backups.
func NewAuditJournal(path string) *AuditJournal {
	return &AuditJournal{
		sink: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    64,
			MaxBackups: 10,
			Compress:   true,
		},
	}
}

// Emit implements events.Emitter.
func (j *AuditJournal) Emit(evt events.Event) {
	if j == nil || j.sink == nil || evt == nil {
		return
	}
	record := auditRecord{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Type:      evt.EventType(),
	}
	if a, ok := evt.(attributed); ok {
		if payload := a.Event(); payload != nil {
			record.Attributes = payload.Attributes
		}
	}
	line, err := json.Marshal(record)
	if err != nil {
		slog.Error("audit journal marshal failed", "type", record.Type, "err", err)
		return
	}
	line = append(line, '\n')
	if _, err := j.sink.Write(line); err != nil {
		slog.Error("audit journal write failed", "type", record.Type, "err", err)
	}
}

// Close flushes and closes the underlying file.
func (j *AuditJournal) Close() error {
	if j == nil || j.sink == nil {
		return nil
	}
	return j.sink.Close()
}
