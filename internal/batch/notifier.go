package batch

// Notifier receives asynchronous pipeline events. Implementations must not
// call back into the pipeline; they are handed immutable snapshots only.
type Notifier interface {
	// JobStatus fires on every status transition.
	JobStatus(snapshot Snapshot)
	// JobProgress fires as a running job's fraction advances. Deliveries for
	// one job are in order and non-decreasing.
	JobProgress(jobID string, fraction float64)
	// BatchProgress fires after each job reaches a terminal state. Monotonic.
	BatchProgress(completed, total int)
}

// NopNotifier ignores all events.
type NopNotifier struct{}

func (NopNotifier) JobStatus(Snapshot)          {}
func (NopNotifier) JobProgress(string, float64) {}
func (NopNotifier) BatchProgress(int, int)      {}

var _ Notifier = NopNotifier{}
