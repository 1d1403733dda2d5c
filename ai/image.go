package ai

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/lostfound/core"
)

// ImageSource is where an image comes from: either a file path or raw
// bytes. It is resolved once, at the boundary, into a core.Image.
type ImageSource interface {
	// Resolve loads the image and determines its MIME type.
	Resolve() (core.Image, error)

	isImageSource()
}

// ImagePath is an ImageSource read from the local filesystem.
// The MIME type is taken from the extension (.jpg, .jpeg or .png).
type ImagePath string

// ImageBytes is an ImageSource held in memory.
// The MIME type is sniffed from the content.
type ImageBytes []byte

func (ImagePath) isImageSource()  {}
func (ImageBytes) isImageSource() {}

// Resolve reads the file and maps its extension to a MIME type.
func (p ImagePath) Resolve() (core.Image, error) {
	var contentType string
	switch strings.ToLower(filepath.Ext(string(p))) {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	default:
		return core.Image{}, fmt.Errorf("%w: %s", core.ErrUnsupportedImage, filepath.Ext(string(p)))
	}

	data, err := os.ReadFile(string(p))
	if err != nil {
		return core.Image{}, err
	}
	if len(data) == 0 {
		return core.Image{}, ErrEmptyImage
	}
	return core.Image{Data: data, ContentType: contentType}, nil
}

// Resolve sniffs the MIME type of the bytes.
func (b ImageBytes) Resolve() (core.Image, error) {
	if len(b) == 0 {
		return core.Image{}, ErrEmptyImage
	}
	contentType := http.DetectContentType(b)
	if err := core.ValidateContentType(contentType); err != nil {
		return core.Image{}, err
	}
	return core.Image{Data: []byte(b), ContentType: contentType}, nil
}
