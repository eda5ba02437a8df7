package catalog

// IDGenerator supplies identifiers for new products.
type IDGenerator interface {
	NewID() string
}

// BarcodeEncoder renders a product identifier as an image byte stream. The
// encoding format is opaque to the catalog.
type BarcodeEncoder interface {
	Encode(content string) ([]byte, error)
}
