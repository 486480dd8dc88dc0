package interaction

import "github.com/menta2k/image-cropper/pkg/types"

// Host is the rendering and input adapter the controller drives. All
// controller methods must be called from the goroutine that runs the
// callbacks passed to Schedule.
type Host interface {
	// Bounds measures the rendered container in client coordinates.
	Bounds() types.Bounds
	// NaturalSize is the intrinsic size of the loaded image.
	NaturalSize() types.Size
	// Schedule runs fn once, as soon as possible, off the current call stack.
	Schedule(fn func())
	// Draw applies a frame.
	Draw(Frame)
}

// PointerCapturer is implemented by hosts that route pointer move and up
// events globally while a gesture is active.
type PointerCapturer interface {
	CapturePointer() (release func())
}

// Revealer is implemented by hosts whose container may sit in a hidden
// modal. Reveal forces it visible for measuring.
type Revealer interface {
	Reveal() (restore func())
}

// PreviewTarget is implemented by hosts that render a live preview.
type PreviewTarget interface {
	PreviewSize() (types.Size, bool)
}
