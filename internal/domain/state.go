package domain

// ProductState represents the lifecycle state of a raster product as tracked
// by the consuming application.
type ProductState string

const (
	StateWaiting    ProductState = "WAITING"
	StateGenerating ProductState = "GENERATING"
	StateReady      ProductState = "READY"
	StateError      ProductState = "ERROR"
)

// Reasons attached to ERROR transitions. These are user-visible through the
// product status feed.
const (
	ReasonJobFailed    = "SDS job failed - please contact support"
	ReasonUnknownStage = "Unknown job stage - please contact support"
	ReasonUnknownState = "Unknown job state - please contact support"
)

// Classification is the result of mapping an SDS status/stage pair onto the
// product lifecycle. Reason is non-empty only for ERROR.
type Classification struct {
	State  ProductState
	Reason string
}

// IsWaiting returns true if the classification carries no transition.
func (c Classification) IsWaiting() bool {
	return c.State == StateWaiting
}

// Classify maps a raw SDS job status and processing stage onto a product
// state. It is total: every input pair yields exactly one classification, and
// unrecognized vocabulary degrades to ERROR with a reason rather than being
// dropped.
func Classify(status, stage string) Classification {
	switch {
	case WaitingStatuses[status]:
		return Classification{State: StateWaiting}
	case FailStatuses[status]:
		return Classification{State: StateError, Reason: ReasonJobFailed}
	case SuccessStatuses[status]:
		switch stage {
		case StageEvaluate:
			return Classification{State: StateGenerating}
		case StageRaster:
			return Classification{State: StateReady}
		default:
			return Classification{State: StateError, Reason: ReasonUnknownStage}
		}
	default:
		return Classification{State: StateError, Reason: ReasonUnknownState}
	}
}
