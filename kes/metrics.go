package kes

import "sync/atomic"

// Metrics counts key-evolving signature operations process-wide. Counters
// are cumulative and safe for concurrent use. Composed schemes count one
// event per tree node involved, so one signature under a depth-6 Sum key
// raises Signatures by seven; Verifications count once per Verify call.
type Metrics struct {
	KeyGenerations     atomic.Uint64
	Signatures         atomic.Uint64
	Verifications      atomic.Uint64
	VerificationErrors atomic.Uint64
	Updates            atomic.Uint64
	Expirations        atomic.Uint64
	KeysFreed          atomic.Uint64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	KeyGenerations     uint64
	Signatures         uint64
	Verifications      uint64
	VerificationErrors uint64
	Updates            uint64
	Expirations        uint64
	KeysFreed          uint64
}

// Read returns a consistent-enough snapshot for reporting. Individual
// counters are read atomically; the set is not.
func (m *Metrics) Read() Snapshot {
	return Snapshot{
		KeyGenerations:     m.KeyGenerations.Load(),
		Signatures:         m.Signatures.Load(),
		Verifications:      m.Verifications.Load(),
		VerificationErrors: m.VerificationErrors.Load(),
		Updates:            m.Updates.Load(),
		Expirations:        m.Expirations.Load(),
		KeysFreed:          m.KeysFreed.Load(),
	}
}

// DefaultMetrics collects counts for every scheme in this package.
var DefaultMetrics = &Metrics{}

func countVerify(err error) error {
	DefaultMetrics.Verifications.Add(1)
	if err != nil {
		DefaultMetrics.VerificationErrors.Add(1)
	}
	return err
}
