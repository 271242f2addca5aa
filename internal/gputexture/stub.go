//go:build !darwin

package gputexture

import "errors"

// ErrUnsupported is returned on platforms with no Metal HAL backend.
var ErrUnsupported = errors.New("gputexture: no GPU backend on this platform")

// Uploader is a no-op stand-in on non-Darwin platforms.
type Uploader struct{}

func New() (*Uploader, error) { return nil, ErrUnsupported }

func (u *Uploader) Upload(width, height int, pixels []byte) error { return ErrUnsupported }

func (u *Uploader) Close() {}
