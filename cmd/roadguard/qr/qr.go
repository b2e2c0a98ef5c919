// Package qr encodes client configs for mobile WireGuard apps.
package qr

import (
	"fmt"

	skip2 "github.com/skip2/go-qrcode"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"

	"roadguard/models"
)

// WritePNG saves conf as a QR code image at path.
func WritePNG(path, conf string) error {
	code, err := qrcode.New(conf)
	if err != nil {
		return fmt.Errorf("%w: encoding qr code: %w", models.ErrPersistence, err)
	}
	w, err := standard.New(path, standard.WithBuiltinImageEncoder(standard.PNG_FORMAT))
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	// Save closes the writer
	if err := code.Save(w); err != nil {
		return fmt.Errorf("%w: writing %s: %w", models.ErrPersistence, path, err)
	}
	return nil
}

// Terminal renders conf as a block of half-height characters for a terminal.
func Terminal(conf string) (string, error) {
	code, err := skip2.New(conf, skip2.Low)
	if err != nil {
		return "", fmt.Errorf("encoding qr code: %w", err)
	}
	return code.ToSmallString(false), nil
}
