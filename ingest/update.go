package ingest

import (
	"fmt"

	"github.com/openfinality/chainquery/block"
	"github.com/openfinality/chainquery/consensus"
	"github.com/openfinality/chainquery/dispersal"
	"github.com/openfinality/chainquery/events"
	"github.com/openfinality/chainquery/types"
	"github.com/openfinality/chainquery/utils"
)

// UpdateStore is the slice of storage the orchestrator writes through. All
// inserts land in one transaction owned by the caller, so a decide is
// applied all-or-nothing.
type UpdateStore interface {
	InsertLeaf(rec *types.LeafRecord) error
	InsertBlock(rec *types.BlockRecord) error
	InsertDispersal(rec *types.DispersalRecord) error
}

// Updater applies consensus events to storage. Corrupt events and storage
// faults abort the batch; missing payloads or shares are recorded as
// anomalies and never block the leaves themselves.
type Updater struct {
	disperser    dispersal.Disperser
	genesisWidth int
	diag         DiagnosticSink
}

// NewUpdater wires the orchestrator. genesisWidth is the share count used
// when synthesizing the genesis dispersal locally; diag may be nil for
// log-only diagnostics.
func NewUpdater(disperser dispersal.Disperser, genesisWidth int, diag DiagnosticSink) *Updater {
	if diag == nil {
		diag = LogDiagnostics
	}
	return &Updater{
		disperser:    disperser,
		genesisWidth: genesisWidth,
		diag:         diag,
	}
}

// HandleEvent dispatches one consensus event. Only decides touch storage;
// every other variant is an explicit no-op with an empty report.
func (u *Updater) HandleEvent(st UpdateStore, event events.ConsensusEvent) (*Report, error) {
	switch ev := event.(type) {
	case *events.DecideEvent:
		return u.Update(st, ev)
	case *events.ProposalEvent:
		return &Report{}, nil
	case *events.ViewTimeoutEvent:
		return &Report{}, nil
	case *events.ConsensusErrorEvent:
		return &Report{}, nil
	default:
		return &Report{}, nil
	}
}

// Update applies one decide. Leaves are stored oldest first; for each leaf
// the dispersal share and payload are stored when present, synthesized for
// genesis, or reported as anomalies otherwise.
func (u *Updater) Update(st UpdateStore, event *events.DecideEvent) (*Report, error) {
	leafChain := event.LeafChain()
	records, err := PairCertificates(event.Cert(), leafChain)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for i, rec := range records {
		info := leafChain[len(leafChain)-1-i]
		leaf := info.Leaf

		if err := st.InsertLeaf(rec); err != nil {
			return nil, fmt.Errorf("failed to store leaf at height %d: %w", rec.Height(), err)
		}
		report.Leaves++

		if info.Dispersal != nil {
			drec := types.NewDispersalRecord(leaf.Header, info.Dispersal.Common, &info.Dispersal.Share)
			if err := st.InsertDispersal(drec); err != nil {
				return nil, fmt.Errorf("failed to store dispersal at height %d: %w", leaf.Header.Height, err)
			}
		} else if leaf.IsGenesis() {
			u.storeGenesisDispersal(st, &leaf, report)
		} else {
			u.observe(report, Anomaly{
				Kind:   AnomalyDispersalMissing,
				Height: leaf.Header.Height,
				View:   leaf.View,
				Detail: "share not delivered at decide",
			})
		}

		if leaf.Payload != nil {
			brec := types.NewBlockRecord(leaf.Header, *leaf.Payload)
			if err := st.InsertBlock(brec); err != nil {
				return nil, fmt.Errorf("failed to store block at height %d: %w", leaf.Header.Height, err)
			}
		} else {
			u.observe(report, Anomaly{
				Kind:   AnomalyPayloadMissing,
				Height: leaf.Header.Height,
				View:   leaf.View,
				Detail: "payload not delivered at decide",
			})
		}
	}
	return report, nil
}

// storeGenesisDispersal derives the genesis share set locally. Genesis is
// never dispersed over the network, so the block would otherwise be a
// permanent availability gap. Every failure here is an anomaly, not an
// abort: a node that cannot code genesis can still index the chain.
func (u *Updater) storeGenesisDispersal(st UpdateStore, leaf *consensus.Leaf, report *Report) {
	height := leaf.Header.Height
	if u.disperser == nil {
		u.observe(report, Anomaly{
			Kind:   AnomalyGenesisCoding,
			Height: height,
			View:   leaf.View,
			Detail: "no disperser configured",
		})
		return
	}

	payload := block.EmptyPayload().Encode()
	disp, err := u.disperser.Disperse(payload, u.genesisWidth)
	if err != nil {
		u.observe(report, Anomaly{
			Kind:   AnomalyGenesisCoding,
			Height: height,
			View:   leaf.View,
			Detail: err.Error(),
		})
		return
	}

	if disp.Commitment != leaf.Header.PayloadCommitment {
		u.observe(report, Anomaly{
			Kind:   AnomalyGenesisMismatch,
			Height: height,
			View:   leaf.View,
			Detail: fmt.Sprintf("computed %s, header has %s", utils.ShortHash(disp.Commitment), utils.ShortHash(leaf.Header.PayloadCommitment)),
		})
		return
	}

	var share *dispersal.Share
	if len(disp.Shares) > 0 {
		share = &disp.Shares[0]
	}
	rec := types.NewDispersalRecord(leaf.Header, disp.Common, share)
	if err := st.InsertDispersal(rec); err != nil {
		u.observe(report, Anomaly{
			Kind:   AnomalyGenesisStore,
			Height: height,
			View:   leaf.View,
			Detail: err.Error(),
		})
	}
}

func (u *Updater) observe(report *Report, a Anomaly) {
	report.Anomalies = append(report.Anomalies, a)
	u.diag(a)
}
