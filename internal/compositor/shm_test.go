package compositor

import (
	"errors"
	"testing"
)

// TestCreateBufferBadStride covers S4: a stride smaller than width*bpp must
// be rejected rather than accepted and later overrun the pool mapping.
func TestCreateBufferBadStride(t *testing.T) {
	pools := NewShmPools(NewIDRegistry())
	pool, err := pools.CreatePool(-1, 100*100*4)
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}

	_, err = pools.CreateBuffer(pool, 0, 100, 100, 300, ShmFormatARGB8888)
	if !errors.Is(err, ErrBadStride) {
		t.Fatalf("CreateBuffer stride=300 width=100: got %v, want ErrBadStride", err)
	}
}

func TestCreateBufferGeometry(t *testing.T) {
	pools := NewShmPools(NewIDRegistry())
	pool, err := pools.CreatePool(-1, 640*480*4)
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}

	tests := []struct {
		name                          string
		offset, width, height, stride int32
		wantErr                       error
	}{
		{"exact fit", 0, 640, 480, 640 * 4, nil},
		{"zero width", 0, 0, 480, 640 * 4, ErrPoolTooSmall},
		{"zero height", 0, 640, 0, 640 * 4, ErrPoolTooSmall},
		{"offset overruns pool", 640 * 480 * 4, 640, 480, 640 * 4, ErrPoolTooSmall},
		{"negative offset", -1, 640, 480, 640 * 4, ErrPoolTooSmall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pools.CreateBuffer(pool, tt.offset, tt.width, tt.height, tt.stride, ShmFormatARGB8888)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPoolCannotShrink(t *testing.T) {
	pools := NewShmPools(NewIDRegistry())
	pool, err := pools.CreatePool(-1, 1024)
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	if err := pools.Resize(pool, 2048); err != nil {
		t.Fatalf("grow: %v", err)
	}
	if err := pools.Resize(pool, 1024); !errors.Is(err, ErrPoolShrink) {
		t.Fatalf("shrink: got %v, want ErrPoolShrink", err)
	}
}

func TestDestroyBufferDropsPoolRefButKeepsOtherBuffersLive(t *testing.T) {
	pools := NewShmPools(NewIDRegistry())
	// An fd that does not correspond to any open file: closing it is a
	// harmless no-op error, but it is distinguishable from the "already
	// released" sentinel value (-1) release() sets afterward.
	const fakeFD = 999999
	pool, err := pools.CreatePool(fakeFD, 4096)
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	a, err := pools.CreateBuffer(pool, 0, 10, 10, 40, ShmFormatARGB8888)
	if err != nil {
		t.Fatalf("CreateBuffer a: %v", err)
	}
	b, err := pools.CreateBuffer(pool, 400, 10, 10, 40, ShmFormatARGB8888)
	if err != nil {
		t.Fatalf("CreateBuffer b: %v", err)
	}

	// Destroying the pool while buffers are outstanding must not release
	// the underlying fd/mapping yet.
	pools.DestroyPool(pool)
	if pool.fd < 0 {
		t.Fatal("pool fd released while buffers still reference it")
	}

	pools.DestroyBuffer(a)
	if pool.fd < 0 {
		t.Fatal("pool fd released while one buffer still references it")
	}
	pools.DestroyBuffer(b)
	if pool.fd >= 0 {
		t.Fatal("pool fd not released after last referencing buffer destroyed")
	}
}
