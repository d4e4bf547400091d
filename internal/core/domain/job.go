package domain

import "time"

// SideEffectJob is the unit of work handed to the dispatcher once a vote is
// finalized. The full record rides along so workers never have to read the
// store again.
type SideEffectJob struct {
	EnqueuedAt time.Time   `json:"enqueued_at"`
	Record     *VoteRecord `json:"record"`
}
