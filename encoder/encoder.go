// Package encoder packages captured PCM for upload to remote engines.
package encoder

import "fmt"

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder turns 16 kHz mono PCM into an encoded byte stream.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	// ContentType and FileExt describe the encoded payload for HTTP upload.
	ContentType() string
	FileExt() string
}

// New returns an encoder for the given upload format.
func New(format string) (Encoder, error) {
	switch format {
	case "wav":
		return NewWav()
	case "flac":
		return NewFlac()
	default:
		return nil, fmt.Errorf("unknown format %q (use wav or flac)", format)
	}
}

// Encode runs a whole PCM buffer through a fresh encoder in one shot.
func Encode(format string, pcm []int16) ([]byte, error) {
	enc, err := New(format)
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(pcm); i += BlockSize {
		end := min(i+BlockSize, len(pcm))
		if err := enc.EncodeBlock(pcm[i:end]); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}
