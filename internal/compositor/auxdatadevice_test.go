package compositor

import "testing"

func TestNegotiateActionPrefersReceiverChoice(t *testing.T) {
	store := NewDataDeviceStore(NewIDRegistry())
	src := store.CreateSource()
	src.SetActions(DndActionCopy | DndActionMove)

	offer := store.CreateOffer(src)
	offer.SetReceiverActions(DndActionCopy | DndActionMove)

	got := offer.NegotiateAction(DndActionMove)
	if got != DndActionMove {
		t.Fatalf("NegotiateAction(preferred=Move) = %v, want Move", got)
	}
	if offer.ChosenAction() != DndActionMove {
		t.Fatalf("ChosenAction = %v, want Move", offer.ChosenAction())
	}
}

func TestNegotiateActionFallsBackInOrder(t *testing.T) {
	store := NewDataDeviceStore(NewIDRegistry())
	src := store.CreateSource()
	src.SetActions(DndActionMove | DndActionAsk)

	offer := store.CreateOffer(src)
	offer.SetReceiverActions(DndActionMove | DndActionAsk)

	// Preferred (copy) is not in the intersection: falls back to move
	// (checked before ask).
	got := offer.NegotiateAction(DndActionCopy)
	if got != DndActionMove {
		t.Fatalf("NegotiateAction fallback = %v, want Move", got)
	}
}

func TestNegotiateActionNoneWhenDisjoint(t *testing.T) {
	store := NewDataDeviceStore(NewIDRegistry())
	src := store.CreateSource()
	src.SetActions(DndActionCopy)

	offer := store.CreateOffer(src)
	offer.SetReceiverActions(DndActionMove)

	if got := offer.NegotiateAction(DndActionNone); got != DndActionNone {
		t.Fatalf("disjoint action sets: got %v, want None", got)
	}
}

func TestSetSelectionCancelsPrevious(t *testing.T) {
	store := NewDataDeviceStore(NewIDRegistry())
	first := store.CreateSource()
	second := store.CreateSource()

	store.SetSelection(first)
	if store.Selection() != first {
		t.Fatal("selection not set to first source")
	}
	store.SetSelection(second)
	if store.Selection() != second {
		t.Fatal("selection not updated to second source")
	}
	// first must have been cancelled when displaced.
	if !firstIsCancelled(first) {
		t.Fatal("displaced selection source was not cancelled")
	}
}

func firstIsCancelled(s *DataSource) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func TestDestroySourceClearsActiveSelection(t *testing.T) {
	store := NewDataDeviceStore(NewIDRegistry())
	src := store.CreateSource()
	store.SetSelection(src)
	store.DestroySource(src)
	if store.Selection() != nil {
		t.Fatal("destroying the active selection source must clear the selection")
	}
}
