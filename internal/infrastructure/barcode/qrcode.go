package barcode

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const imageSize = 200

// QRCodeEncoder renders content as a PNG QR code sized for in-store
// scanning.
type QRCodeEncoder struct{}

func NewQRCodeEncoder() *QRCodeEncoder {
	return &QRCodeEncoder{}
}

func (QRCodeEncoder) Encode(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, imageSize)
	if err != nil {
		return nil, fmt.Errorf("barcode: encode qr: %w", err)
	}
	return png, nil
}
