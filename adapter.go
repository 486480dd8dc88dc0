package imagecropper

import "github.com/menta2k/image-cropper/pkg/interaction"

// Adapter renders the cropper and reports its layout. It extends
// interaction.Host with image source handling.
type Adapter interface {
	interaction.Host

	// Source returns the current image source. An empty source is a
	// configuration error.
	Source() string

	// LoadImage replaces the image and calls done through Schedule once
	// its natural size is known. A failed load never calls done.
	LoadImage(src string, done func())
}

// Destroyer is implemented by adapters holding resources to release when
// the cropper is destroyed.
type Destroyer interface {
	Destroy()
}
