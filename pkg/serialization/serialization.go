// Package serialization defines the encoder/decoder pair used when cache
// entries cross a process boundary (the shared remote tier).
package serialization

const (
	// JSONType represents the serialization type for JSON format.
	JSONType = "json"

	// GobType represents the serialization type for Gob format.
	GobType = "gob"
)

// Decoder reads one value from an underlying stream.
type Decoder interface {
	Decode(v any) error
}

// Encoder writes one value to an underlying stream.
type Encoder interface {
	Encode(v any) error
}
