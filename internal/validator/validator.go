// Package validator decodes and validates raw SDS status batches. Decoding
// into closed structs strips fields the schema does not declare; field-level
// rules return structured errors so a bad job can be logged and dropped
// without aborting the rest of the batch.
package validator

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/podaac/swodlr-async-update/internal/domain"
)

// RawJob is the wire shape of a single SDS notification before validation.
type RawJob struct {
	JobStatus string   `json:"job_status"`
	Stage     string   `json:"stage"`
	ProductID string   `json:"product_id"`
	Granules  []string `json:"granules"`
}

// Validate checks the structural requirements of a raw job. It returns
// validation.Errors (a field name to message map) on failure.
func (j RawJob) Validate() error {
	return validation.ValidateStruct(&j,
		validation.Field(&j.JobStatus,
			validation.Required.Error("job_status is required"),
		),
		validation.Field(&j.ProductID,
			validation.Required.Error("product_id is required"),
			validation.By(uuidRule),
		),
	)
}

func uuidRule(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil // Required already covers the empty case
	}
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("must be a valid UUID")
	}
	return nil
}

// jobset is the enveloped wire shape: an object carrying a jobs array.
type jobset struct {
	Jobs []json.RawMessage `json:"jobs"`
}

// DecodeBatch parses one raw batch body into its undecoded elements. Both
// wire shapes are accepted: an object with a "jobs" array, or a bare array of
// job objects (a single job is the one-element degenerate case). Elements are
// left opaque so a malformed job fails only itself in DecodeJob, never the
// whole batch.
func DecodeBatch(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("validator: empty batch body")
	}

	if trimmed[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, fmt.Errorf("validator: decode job array: %w", err)
		}
		return elems, nil
	}

	var set jobset
	if err := json.Unmarshal(trimmed, &set); err != nil {
		return nil, fmt.Errorf("validator: decode jobset: %w", err)
	}
	return set.Jobs, nil
}

// DecodeJob unmarshals one batch element into the declared wire shape,
// stripping undeclared fields. A type-mismatched field is a per-job failure.
func DecodeJob(elem json.RawMessage) (RawJob, error) {
	var raw RawJob
	if err := json.Unmarshal(elem, &raw); err != nil {
		return RawJob{}, fmt.Errorf("validator: decode job: %w", err)
	}
	return raw, nil
}

// ValidateJob narrows a raw job into a typed update, applying defaults for
// optional fields. On failure the returned error is validation.Errors keyed
// by field name.
func ValidateJob(raw RawJob) (domain.JobUpdate, error) {
	if err := raw.Validate(); err != nil {
		return domain.JobUpdate{}, err
	}

	// Validate guarantees this parses.
	id, err := uuid.Parse(raw.ProductID)
	if err != nil {
		return domain.JobUpdate{}, fmt.Errorf("validator: product_id: %w", err)
	}

	granules := raw.Granules
	if granules == nil {
		granules = []string{}
	}

	return domain.JobUpdate{
		JobStatus: raw.JobStatus,
		Stage:     raw.Stage,
		ProductID: id,
		Granules:  granules,
	}, nil
}
