package compositor

import (
	"errors"
	"testing"
)

// alwaysConfigured is a ConfigureGate that never blocks a buffer commit.
type alwaysConfigured struct{}

func (alwaysConfigured) AllowBufferCommit() bool { return true }

// neverConfigured is a ConfigureGate that always blocks a buffer commit.
type neverConfigured struct{}

func (neverConfigured) AllowBufferCommit() bool { return false }

func TestAssignRoleOnceThenConflict(t *testing.T) {
	s := newSurface(1)
	if err := s.AssignRole(RoleToplevel); err != nil {
		t.Fatalf("first assignment: %v", err)
	}
	if err := s.AssignRole(RoleToplevel); err != nil {
		t.Fatalf("re-assigning the same role should be a no-op: %v", err)
	}
	if err := s.AssignRole(RolePopup); !errors.Is(err, ErrRoleConflict) {
		t.Fatalf("assigning a different role: got %v, want ErrRoleConflict", err)
	}
}

func TestCommitWithoutConfigureIsRejected(t *testing.T) {
	pools := NewShmPools(NewIDRegistry())
	pool, _ := pools.CreatePool(999999, 4096)
	buf, err := pools.CreateBuffer(pool, 0, 10, 10, 40, ShmFormatARGB8888)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}

	s := newSurface(1)
	s.Attach(buf)
	if _, err := s.Commit(neverConfigured{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("commit before ack_configure: got %v, want ErrNotConfigured", err)
	}
}

// TestCommitIsAtomic covers that a commit moves every pending field to
// current together: after Commit, the damage and scale staged alongside
// the Attach are current and nothing is left pending.
func TestCommitIsAtomic(t *testing.T) {
	s := newSurface(1)
	s.Attach(nil) // legal: a toplevel may commit once with no buffer (S2)
	s.Damage(Rect{X: 0, Y: 0, W: 640, H: 480})
	s.SetBufferScale(2)

	ready, err := s.Commit(alwaysConfigured{})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(ready) != 0 {
		t.Fatalf("no frame callbacks were staged, got %d", len(ready))
	}
	if s.current.damage.Empty() {
		t.Fatal("committed damage did not move to current")
	}
	if s.current.scale != 2 || !s.current.scaleTouched {
		t.Fatalf("committed scale = %d touched=%v, want 2/true", s.current.scale, s.current.scaleTouched)
	}
	if !s.pending.damage.Empty() {
		t.Fatal("pending damage was not cleared after commit")
	}
}

// TestCommitReleasesOldBufferExactlyOnce covers S3: reattaching a new
// buffer must release the old one exactly once, and never a buffer still
// current.
func TestCommitReleasesOldBufferExactlyOnce(t *testing.T) {
	pools := NewShmPools(NewIDRegistry())
	pool, _ := pools.CreatePool(999999, 4096)
	bufA, err := pools.CreateBuffer(pool, 0, 10, 10, 40, ShmFormatARGB8888)
	if err != nil {
		t.Fatalf("CreateBuffer a: %v", err)
	}
	bufB, err := pools.CreateBuffer(pool, 400, 10, 10, 40, ShmFormatARGB8888)
	if err != nil {
		t.Fatalf("CreateBuffer b: %v", err)
	}

	var released []*ShmBuffer
	store := NewSurfaceStore(NewIDRegistry(), func(b *ShmBuffer) { released = append(released, b) })
	s := store.CreateSurface()

	s.Attach(bufA)
	if _, err := store.Commit(s, alwaysConfigured{}); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if len(released) != 0 {
		t.Fatalf("first buffer attach must not release anything, got %d releases", len(released))
	}

	s.Attach(bufB)
	if _, err := store.Commit(s, alwaysConfigured{}); err != nil {
		t.Fatalf("second commit: %v", err)
	}
	if len(released) != 1 || released[0] != bufA {
		t.Fatalf("want exactly one release of bufA, got %v", released)
	}

	// Re-committing the same current buffer again must not re-release it.
	s.Attach(bufB)
	if _, err := store.Commit(s, alwaysConfigured{}); err != nil {
		t.Fatalf("third commit: %v", err)
	}
	if len(released) != 1 {
		t.Fatalf("re-attaching the already-current buffer must not release it, got %d releases", len(released))
	}
}

func TestChildrenSnapshotIsIndependent(t *testing.T) {
	s := newSurface(1)
	s.addChild(2)
	s.addChild(3)
	children := s.Children()
	if len(children) != 2 {
		t.Fatalf("want 2 children, got %d", len(children))
	}
	s.addChild(4)
	if len(children) != 2 {
		t.Fatal("snapshot must not observe later mutation")
	}
}
