package pii

import (
	"encoding/json"
	"log/slog"

	"github.com/V4T54L/restnav/internal/domain"
)

const RedactedPlaceholder = "[REDACTED]"

// Redactor removes sensitive argument values from archived request bodies.
type Redactor struct {
	fieldsToRedact map[string]struct{}
	logger         *slog.Logger
}

// NewRedactor creates a new Redactor instance with a given set of fields to redact.
func NewRedactor(fields []string, logger *slog.Logger) *Redactor {
	fieldSet := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if field == "" {
			continue
		}
		fieldSet[field] = struct{}{}
	}
	return &Redactor{
		fieldsToRedact: fieldSet,
		logger:         logger,
	}
}

// Redact rewrites the snapshot's request body in place. Action arguments
// arrive as {"name": {"value": ...}}; matching top-level keys are replaced
// whole. Bodies that are not JSON objects are left as they are and reported.
func (r *Redactor) Redact(snapshot *domain.EntrySnapshot) error {
	if len(r.fieldsToRedact) == 0 || snapshot.Request == "" {
		return nil
	}

	var body map[string]interface{}
	if err := json.Unmarshal([]byte(snapshot.Request), &body); err != nil {
		r.logger.Warn("failed to unmarshal request body for redaction", "error", err, "entry_id", snapshot.ID)
		return err
	}

	redacted := false
	for field := range r.fieldsToRedact {
		if _, ok := body[field]; ok {
			body[field] = RedactedPlaceholder
			redacted = true
		}
	}

	if redacted {
		modified, err := json.Marshal(body)
		if err != nil {
			r.logger.Error("failed to marshal request body after redaction", "error", err, "entry_id", snapshot.ID)
			return err
		}
		snapshot.Request = string(modified)
		snapshot.Redacted = true
	}

	return nil
}
