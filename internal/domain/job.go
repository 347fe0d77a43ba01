package domain

import (
	"github.com/google/uuid"
)

// JobUpdate is one validated SDS status notification. It is produced only by
// the validator; no untyped data crosses into classification or persistence.
type JobUpdate struct {
	JobStatus string
	Stage     string
	ProductID uuid.UUID
	Granules  []string
}

// BatchMessage wraps one raw batch body delivered by the queue along with
// acknowledgement callbacks supplied by the transport.
type BatchMessage struct {
	// MessageID identifies the delivery for deduplication. Empty when the
	// broker did not set one.
	MessageID string
	Body      []byte
	Ack       func() error
	Nack      func(requeue bool) error
}
