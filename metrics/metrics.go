package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

// Prometheus-style counters (uint64 via atomic)
var (
	secretsSubmitted   atomic.Uint64
	secretsRejected    [2]atomic.Uint64 // empty, too_long
	storeWriteFailures atomic.Uint64
	storeReadFailures  atomic.Uint64
	deadLettered       atomic.Uint64
	deadLetterFailures atomic.Uint64
	archiveViews       atomic.Uint64
)

const (
	RejectEmpty = iota
	RejectTooLong
)

func IncSecretsSubmitted()     { secretsSubmitted.Add(1) }
func IncSecretsRejected(r int) { secretsRejected[r].Add(1) }
func IncStoreWriteFailure()    { storeWriteFailures.Add(1) }
func IncStoreReadFailure()     { storeReadFailures.Add(1) }
func IncDeadLettered()         { deadLettered.Add(1) }
func IncDeadLetterFailure()    { deadLetterFailures.Add(1) }
func IncArchiveViews()         { archiveViews.Add(1) }

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	SecretsSubmitted   uint64
	RejectedEmpty      uint64
	RejectedTooLong    uint64
	StoreWriteFailures uint64
	StoreReadFailures  uint64
	DeadLettered       uint64
	DeadLetterFailures uint64
	ArchiveViews       uint64
}

func Read() Snapshot {
	return Snapshot{
		SecretsSubmitted:   secretsSubmitted.Load(),
		RejectedEmpty:      secretsRejected[RejectEmpty].Load(),
		RejectedTooLong:    secretsRejected[RejectTooLong].Load(),
		StoreWriteFailures: storeWriteFailures.Load(),
		StoreReadFailures:  storeReadFailures.Load(),
		DeadLettered:       deadLettered.Load(),
		DeadLetterFailures: deadLetterFailures.Load(),
		ArchiveViews:       archiveViews.Load(),
	}
}

// Handler exposes metrics in a minimal Prometheus exposition format.
func Handler(w http.ResponseWriter, _ *http.Request) {
	s := Read()
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP secretbox_secrets_submitted_total Non-empty secrets accepted by /send\n")
	fmt.Fprintf(w, "# TYPE secretbox_secrets_submitted_total counter\n")
	fmt.Fprintf(w, "secretbox_secrets_submitted_total %d\n", s.SecretsSubmitted)

	fmt.Fprintf(w, "# HELP secretbox_secrets_rejected_total Submissions turned away before storage\n")
	fmt.Fprintf(w, "# TYPE secretbox_secrets_rejected_total counter\n")
	fmt.Fprintf(w, "secretbox_secrets_rejected_total{reason=\"empty\"} %d\n", s.RejectedEmpty)
	fmt.Fprintf(w, "secretbox_secrets_rejected_total{reason=\"too_long\"} %d\n", s.RejectedTooLong)

	fmt.Fprintf(w, "# HELP secretbox_store_failures_total Datastore operations that failed\n")
	fmt.Fprintf(w, "# TYPE secretbox_store_failures_total counter\n")
	fmt.Fprintf(w, "secretbox_store_failures_total{op=\"create\"} %d\n", s.StoreWriteFailures)
	fmt.Fprintf(w, "secretbox_store_failures_total{op=\"list\"} %d\n", s.StoreReadFailures)

	fmt.Fprintf(w, "# HELP secretbox_dead_letter_total Failed writes republished to the dead-letter topic\n")
	fmt.Fprintf(w, "# TYPE secretbox_dead_letter_total counter\n")
	fmt.Fprintf(w, "secretbox_dead_letter_total{result=\"ok\"} %d\n", s.DeadLettered)
	fmt.Fprintf(w, "secretbox_dead_letter_total{result=\"error\"} %d\n", s.DeadLetterFailures)

	fmt.Fprintf(w, "# HELP secretbox_archive_views_total Archive page renders\n")
	fmt.Fprintf(w, "# TYPE secretbox_archive_views_total counter\n")
	fmt.Fprintf(w, "secretbox_archive_views_total %d\n", s.ArchiveViews)
}
