package services

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	MinQRSize     = 128
	MaxQRSize     = 1024
	DefaultQRSize = 256
)

// QRCodeGenerator renders content as a PNG QR code
type QRCodeGenerator interface {
	PNG(content string, size int) ([]byte, error)
}

type QRCodeGeneratorImpl struct{}

func NewQRCodeGenerator() QRCodeGenerator {
	return &QRCodeGeneratorImpl{}
}

// PNG clamps size into the supported range before encoding
func (g *QRCodeGeneratorImpl) PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr content is empty")
	}
	switch {
	case size <= 0:
		size = DefaultQRSize
	case size < MinQRSize:
		size = MinQRSize
	case size > MaxQRSize:
		size = MaxQRSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}
