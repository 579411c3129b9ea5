package mimetypes

import (
	"mime"
	"strings"
)

// MIME is a media type without parameters, as sniffed from uploaded bytes.
type MIME string

const (
	Unknown MIME = "unknown"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
	ImageWEBP MIME = "image/webp"
	ImageAVIF MIME = "image/avif"
	ImageSVG  MIME = "image/svg+xml"
)

// ToMIME strips parameters from a detected media type.
func ToMIME(detected string) MIME {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown
	}
	return MIME(mt)
}

// IsImage accepts raster images only. SVG can carry scripts and uploads are
// served back from the same origin.
func (m MIME) IsImage() bool {
	return strings.HasPrefix(string(m), "image/") && m != ImageSVG
}

func (m MIME) IsJPEGOrPNG() bool {
	return m == ImageJPEG || m == ImagePNG
}
