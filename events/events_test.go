package events

import (
	"testing"
	"time"

	"github.com/openfinality/chainquery/consensus"
)

func decideEventForView(view uint64) *DecideEvent {
	cert := consensus.Certificate{
		View:       consensus.ViewNumber(view),
		LeafCommit: [32]byte{0x01},
	}
	return NewDecideEvent(cert, []consensus.LeafInfo{})
}

func TestEventBus(t *testing.T) {
	eventBus := NewEventBus()

	id, eventChan := eventBus.Subscribe()

	// Verify subscription count
	if count := eventBus.GetTotalSubscriptions(); count != 1 {
		t.Errorf("Expected 1 subscriber, got %d", count)
	}
	if !eventBus.HasSubscriber(id) {
		t.Errorf("Expected subscriber %s to exist", id)
	}

	event := decideEventForView(42)

	// Publish event in goroutine to avoid blocking
	go func() {
		eventBus.Publish(event)
	}()

	// Wait for event
	select {
	case receivedEvent := <-eventChan:
		if receivedEvent.Type() != EventDecide {
			t.Errorf("Expected %s, got %s", EventDecide, receivedEvent.Type())
		}
		if receivedEvent.View() != 42 {
			t.Errorf("Expected view 42, got %d", receivedEvent.View())
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout waiting for event")
	}

	// Test unsubscribe
	if !eventBus.Unsubscribe(id) {
		t.Error("Expected unsubscribe to succeed")
	}

	// Verify subscription count is 0
	if count := eventBus.GetTotalSubscriptions(); count != 0 {
		t.Errorf("Expected 0 subscribers after unsubscribe, got %d", count)
	}

	// Channel must close so consumers can detect removal
	select {
	case _, open := <-eventChan:
		if open {
			t.Error("Expected closed channel after unsubscribe")
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout waiting for channel close")
	}
}

func TestConsensusEvents(t *testing.T) {
	decide := decideEventForView(7)
	if decide.Type() != EventDecide {
		t.Errorf("Expected %s, got %s", EventDecide, decide.Type())
	}
	if decide.View() != 7 {
		t.Errorf("Expected view 7, got %d", decide.View())
	}
	if len(decide.LeafChain()) != 0 {
		t.Errorf("Expected empty leaf chain, got %d leaves", len(decide.LeafChain()))
	}

	proposal := NewProposalEvent(8, [32]byte{0xab})
	if proposal.Type() != EventProposal {
		t.Errorf("Expected %s, got %s", EventProposal, proposal.Type())
	}
	if proposal.LeafCommit() != ([32]byte{0xab}) {
		t.Error("Proposal leaf commit mismatch")
	}

	timeout := NewViewTimeoutEvent(9)
	if timeout.Type() != EventViewTimeout {
		t.Errorf("Expected %s, got %s", EventViewTimeout, timeout.Type())
	}
	if timeout.View() != 9 {
		t.Errorf("Expected view 9, got %d", timeout.View())
	}

	consensusErr := NewConsensusErrorEvent(10, "leader equivocated")
	if consensusErr.Type() != EventConsensusError {
		t.Errorf("Expected %s, got %s", EventConsensusError, consensusErr.Type())
	}
	if consensusErr.Message() != "leader equivocated" {
		t.Errorf("Expected error message 'leader equivocated', got %s", consensusErr.Message())
	}
}

func TestMultipleSubscribers(t *testing.T) {
	eventBus := NewEventBus()

	id1, eventChan1 := eventBus.Subscribe()
	id2, eventChan2 := eventBus.Subscribe()

	// Verify subscription count
	if count := eventBus.GetTotalSubscriptions(); count != 2 {
		t.Errorf("Expected 2 subscribers, got %d", count)
	}

	event := decideEventForView(11)
	eventBus.Publish(event)

	// Both subscribers should receive the event
	select {
	case receivedEvent := <-eventChan1:
		if receivedEvent.View() != 11 {
			t.Errorf("Expected view 11, got %d", receivedEvent.View())
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout waiting for event on channel 1")
	}

	select {
	case receivedEvent := <-eventChan2:
		if receivedEvent.View() != 11 {
			t.Errorf("Expected view 11, got %d", receivedEvent.View())
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout waiting for event on channel 2")
	}

	// Clean up
	eventBus.Unsubscribe(id1)
	eventBus.Unsubscribe(id2)

	// Verify subscription count is 0
	if count := eventBus.GetTotalSubscriptions(); count != 0 {
		t.Errorf("Expected 0 subscribers after unsubscribe, got %d", count)
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	eventBus := NewEventBusWithBuffer(1)
	_, eventChan := eventBus.Subscribe()

	done := make(chan struct{})
	go func() {
		// Second and third publish overflow the buffer and must be dropped,
		// not block
		for view := uint64(1); view <= 3; view++ {
			eventBus.Publish(decideEventForView(view))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Publish blocked on a full subscriber channel")
	}

	select {
	case received := <-eventChan:
		if received.View() != 1 {
			t.Errorf("Expected first published event, got view %d", received.View())
		}
	default:
		t.Error("Expected one buffered event")
	}
}

func TestUnsubscribeUnknownID(t *testing.T) {
	eventBus := NewEventBus()
	if eventBus.Unsubscribe("no-such-id") {
		t.Error("Expected unsubscribe of unknown ID to fail")
	}
}
