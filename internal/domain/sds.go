package domain

// SDS job status vocabulary. The three sets are disjoint; any status outside
// all of them is treated as unknown and surfaced as an ERROR transition.
var (
	// SuccessStatuses are terminal statuses reported when an SDS job finished
	// its stage without error.
	SuccessStatuses = map[string]bool{
		"job-completed": true,
	}

	// FailStatuses are terminal statuses reported when an SDS job did not
	// produce output.
	FailStatuses = map[string]bool{
		"job-failed":   true,
		"job-deduped":  true,
		"job-timedout": true,
	}

	// WaitingStatuses are intermediate statuses. They carry no state
	// transition and are never persisted.
	WaitingStatuses = map[string]bool{
		"job-queued":  true,
		"job-started": true,
		"job-offline": true,
	}
)

// Recognized SDS processing stages for success-class statuses.
const (
	StageEvaluate = "evaluate-submission"
	StageRaster   = "raster-submission"
)
