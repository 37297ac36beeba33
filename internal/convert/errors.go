package convert

import "errors"

var (
	// ErrUnsupportedDocument is returned for MIME types the document
	// converter cannot handle.
	ErrUnsupportedDocument = errors.New("unsupported document type")
	// ErrNoContent is returned when a slide deck yields zero non-empty
	// slides after splitting.
	ErrNoContent = errors.New("no content extracted")
)
