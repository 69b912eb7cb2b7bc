package events

import (
	"time"

	"github.com/openfinality/chainquery/consensus"
)

// EventType is an enum-like string type for consensus events
type EventType string

const (
	EventDecide         EventType = "Decide"
	EventProposal       EventType = "Proposal"
	EventViewTimeout    EventType = "ViewTimeout"
	EventConsensusError EventType = "ConsensusError"
)

// ConsensusEvent represents any event the consensus layer emits. Every
// variant carries the view it was observed in; dispatch is by Type, so new
// variants can be added without breaking consumers that ignore them.
type ConsensusEvent interface {
	Type() EventType
	View() consensus.ViewNumber
	Timestamp() time.Time
}

// DecideEvent announces finalization of a chain segment. The leaf chain is
// ordered newest first and the certificate justifies its newest leaf.
type DecideEvent struct {
	cert      consensus.Certificate
	leafChain []consensus.LeafInfo
	timestamp time.Time
}

func NewDecideEvent(cert consensus.Certificate, leafChain []consensus.LeafInfo) *DecideEvent {
	return &DecideEvent{
		cert:      cert,
		leafChain: leafChain,
		timestamp: time.Now(),
	}
}

func (e *DecideEvent) Type() EventType {
	return EventDecide
}

func (e *DecideEvent) View() consensus.ViewNumber {
	return e.cert.View
}

func (e *DecideEvent) Timestamp() time.Time {
	return e.timestamp
}

func (e *DecideEvent) Cert() consensus.Certificate {
	return e.cert
}

// LeafChain returns the decided leaves, newest first.
func (e *DecideEvent) LeafChain() []consensus.LeafInfo {
	return e.leafChain
}

// ProposalEvent announces a block proposal seen in a view. Proposals are
// not finalized and never reach storage.
type ProposalEvent struct {
	view       consensus.ViewNumber
	leafCommit [32]byte
	timestamp  time.Time
}

func NewProposalEvent(view consensus.ViewNumber, leafCommit [32]byte) *ProposalEvent {
	return &ProposalEvent{
		view:       view,
		leafCommit: leafCommit,
		timestamp:  time.Now(),
	}
}

func (e *ProposalEvent) Type() EventType {
	return EventProposal
}

func (e *ProposalEvent) View() consensus.ViewNumber {
	return e.view
}

func (e *ProposalEvent) Timestamp() time.Time {
	return e.timestamp
}

func (e *ProposalEvent) LeafCommit() [32]byte {
	return e.leafCommit
}

// ViewTimeoutEvent announces that a view ended without a decision.
type ViewTimeoutEvent struct {
	view      consensus.ViewNumber
	timestamp time.Time
}

func NewViewTimeoutEvent(view consensus.ViewNumber) *ViewTimeoutEvent {
	return &ViewTimeoutEvent{
		view:      view,
		timestamp: time.Now(),
	}
}

func (e *ViewTimeoutEvent) Type() EventType {
	return EventViewTimeout
}

func (e *ViewTimeoutEvent) View() consensus.ViewNumber {
	return e.view
}

func (e *ViewTimeoutEvent) Timestamp() time.Time {
	return e.timestamp
}

// ConsensusErrorEvent surfaces an internal consensus error. It carries no
// finalized data and is informational to storage consumers.
type ConsensusErrorEvent struct {
	view      consensus.ViewNumber
	message   string
	timestamp time.Time
}

func NewConsensusErrorEvent(view consensus.ViewNumber, message string) *ConsensusErrorEvent {
	return &ConsensusErrorEvent{
		view:      view,
		message:   message,
		timestamp: time.Now(),
	}
}

func (e *ConsensusErrorEvent) Type() EventType {
	return EventConsensusError
}

func (e *ConsensusErrorEvent) View() consensus.ViewNumber {
	return e.view
}

func (e *ConsensusErrorEvent) Timestamp() time.Time {
	return e.timestamp
}

func (e *ConsensusErrorEvent) Message() string {
	return e.message
}
