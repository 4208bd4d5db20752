package payment

import (
	"fmt"
	"os"

	"github.com/skip2/go-qrcode"
)

// DefaultTarget is the payment address encoded when none is configured.
const DefaultTarget = "https://www.example.com/pix-payment"

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

// Artifact is the scannable payment code shown after an order is finalized.
// Payment is simulated; the target never changes per order.
type Artifact struct {
	Target string
	PNG    []byte
	// Text is a terminal rendering of the same code.
	Text string
}

// WritePNG saves the PNG image to path.
func (a *Artifact) WritePNG(path string) error {
	if err := os.WriteFile(path, a.PNG, 0o644); err != nil {
		return fmt.Errorf("write payment qr code: %w", err)
	}
	return nil
}

// Generator renders payment artifacts for a fixed target.
type Generator struct {
	target string
	size   int
}

// NewGenerator creates a generator for target. An empty target falls back to
// DefaultTarget and a non-positive size to DefaultSize.
func NewGenerator(target string, size int) *Generator {
	if target == "" {
		target = DefaultTarget
	}
	if size <= 0 {
		size = DefaultSize
	}
	return &Generator{target: target, size: size}
}

// Target returns the encoded payment address.
func (g *Generator) Target() string {
	return g.target
}

// Generate encodes the target as a QR code with medium error recovery.
func (g *Generator) Generate() (*Artifact, error) {
	code, err := qrcode.New(g.target, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode payment qr code: %w", err)
	}
	png, err := code.PNG(g.size)
	if err != nil {
		return nil, fmt.Errorf("render payment qr code: %w", err)
	}
	return &Artifact{
		Target: g.target,
		PNG:    png,
		Text:   code.ToSmallString(false),
	}, nil
}
