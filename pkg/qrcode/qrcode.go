package qrcode

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 256
	MaxSize     = 1024
)

// QRService renders share codes for event pages.
type QRService struct {
	baseURL string // e.g. "https://events.example.com/events/"
}

func NewQRService(baseURL string) *QRService {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &QRService{
		baseURL: baseURL,
	}
}

// EventURL is the public page encoded in an event's code.
func (s *QRService) EventURL(eventID uint) string {
	return fmt.Sprintf("%s%d", s.baseURL, eventID)
}

// GenerateEventQRCode returns a PNG pointing at the event page. Sizes
// outside (0, MaxSize] fall back to DefaultSize.
func (s *QRService) GenerateEventQRCode(eventID uint, size int) ([]byte, error) {
	if size <= 0 || size > MaxSize {
		size = DefaultSize
	}

	png, err := qrcode.Encode(s.EventURL(eventID), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code PNG: %w", err)
	}
	return png, nil
}
