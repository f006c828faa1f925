package securetoken

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// MinBytes es el piso de entropía para cualquier token que actúe como
// credencial (links públicos, invites QR). 16 bytes ≈ 128 bits.
const MinBytes = 16

// DefaultBytes es lo que usamos si la config no pide otra cosa.
const DefaultBytes = 24

// New genera un token opaco URL-safe con n bytes de entropía del CSPRNG
// del sistema. Si n es menor que MinBytes, se sube a MinBytes: un token
// corto acá no es un parámetro de tuning, es un bug de seguridad.
func New(n int) (string, error) {
	if n < MinBytes {
		n = MinBytes
	}

	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("securetoken: rand read: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
