package ingest

import (
	"fmt"

	"github.com/openfinality/chainquery/consensus"
	"github.com/openfinality/chainquery/logx"
)

// AnomalyKind classifies the non-fatal gaps a decide batch can leave
// behind. Anomalies mark data that was not available; they never abort the
// batch.
type AnomalyKind string

const (
	// AnomalyDispersalMissing: consensus delivered no share for a
	// non-genesis block.
	AnomalyDispersalMissing AnomalyKind = "dispersal_not_available"

	// AnomalyPayloadMissing: the full payload was not delivered with the
	// leaf.
	AnomalyPayloadMissing AnomalyKind = "payload_not_available"

	// AnomalyGenesisCoding: the local coder failed to synthesize the
	// genesis dispersal.
	AnomalyGenesisCoding AnomalyKind = "genesis_coding_failed"

	// AnomalyGenesisMismatch: the synthesized genesis commitment does
	// not match the genesis header.
	AnomalyGenesisMismatch AnomalyKind = "genesis_commitment_mismatch"

	// AnomalyGenesisStore: storing the synthesized genesis dispersal
	// failed.
	AnomalyGenesisStore AnomalyKind = "genesis_store_failed"
)

// Anomaly is one non-fatal gap observed while applying a decide.
type Anomaly struct {
	Kind   AnomalyKind
	Height uint64
	View   consensus.ViewNumber
	Detail string
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s at height %d view %d: %s", a.Kind, a.Height, a.View, a.Detail)
}

// Report summarizes one applied decide: how many leaves were stored and
// which gaps were left for later repair.
type Report struct {
	Leaves    int
	Anomalies []Anomaly
}

// Clean reports whether the batch stored every leaf with full data.
func (r *Report) Clean() bool {
	return len(r.Anomalies) == 0
}

// DiagnosticSink receives anomalies as they are observed, before the batch
// finishes. Tests and monitors can inject their own; nil means log only.
type DiagnosticSink func(Anomaly)

// LogDiagnostics is the default sink.
func LogDiagnostics(a Anomaly) {
	logx.Warn("INGEST", a.String())
}
