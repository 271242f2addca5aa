//go:build darwin

// Package gputexture uploads the pixel buffers the compositor kernel
// hands to a HostBridge.Present call into a GPU texture via the pure-Go
// wgpu HAL, so a host window can blit committed client buffers through
// Metal instead of a software compositing path.
package gputexture

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/metal"
	wgputypes "github.com/gogpu/wgpu/types"
)

// Uploader owns one wgpu device and queue, opened against the Metal HAL
// backend, and re-creates its upload texture whenever the requested size
// changes.
type Uploader struct {
	backend hal.Backend
	device  hal.Device
	queue   hal.Queue

	width, height int
	texture       hal.Texture
}

// New opens a Metal-backed wgpu device for texture uploads.
func New() (*Uploader, error) {
	backend := metal.Backend{}

	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{
		Backends: wgputypes.Backends(1 << wgputypes.BackendMetal),
	})
	if err != nil {
		return nil, fmt.Errorf("gputexture: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, fmt.Errorf("gputexture: no Metal adapters found")
	}

	opened, err := adapters[0].Adapter.Open(wgputypes.Features(0), wgputypes.DefaultLimits())
	if err != nil {
		return nil, fmt.Errorf("gputexture: open device: %w", err)
	}

	return &Uploader{backend: backend, device: opened.Device, queue: opened.Queue}, nil
}

// Upload copies an ARGB8888 pixel buffer into a width x height texture,
// recreating the texture if the requested size changed since the last
// call. It takes no damage rectangles: the whole buffer is rewritten on
// every call.
func (u *Uploader) Upload(width, height int, pixels []byte) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("gputexture: invalid size %dx%d", width, height)
	}
	if len(pixels) < width*height*4 {
		return fmt.Errorf("gputexture: buffer too small for %dx%d", width, height)
	}

	if u.texture == nil || width != u.width || height != u.height {
		if u.texture != nil {
			u.texture.Destroy()
		}
		tex, err := u.device.CreateTexture(&hal.TextureDescriptor{
			Label:  "wayoa-surface",
			Size:   wgputypes.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
			Format: wgputypes.TextureFormatBGRA8Unorm,
			Usage:  wgputypes.TextureUsageCopyDst | wgputypes.TextureUsageTextureBinding,
		})
		if err != nil {
			return fmt.Errorf("gputexture: create texture: %w", err)
		}
		u.texture = tex
		u.width, u.height = width, height
	}

	u.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: u.texture},
		pixels,
		&hal.ImageDataLayout{BytesPerRow: uint32(width * 4), RowsPerImage: uint32(height)},
		&wgputypes.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
	)
	return nil
}

// Close releases the upload texture; the device and queue are not
// destroyed.
func (u *Uploader) Close() {
	if u.texture != nil {
		u.texture.Destroy()
		u.texture = nil
	}
}
