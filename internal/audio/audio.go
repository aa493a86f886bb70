package audio

import (
	"encoding/binary"
	"math"
	"time"
)

const (
	// SampleRate is the capture and wire rate expected by the transcription service.
	SampleRate = 16000

	// ChunkSamples is the number of samples delivered per capture callback.
	ChunkSamples = 4096

	// MIMEType tags every encoded blob sent to the service.
	MIMEType = "audio/pcm;rate=16000"
)

// Chunk is one fixed-size block of normalized mono samples.
type Chunk struct {
	Samples   []float32
	Timestamp time.Time
}

// Blob is a chunk encoded as 16-bit little-endian PCM.
type Blob struct {
	Data     []byte
	MIMEType string
}

// Encode clamps every sample to [-1, 1], scales it to the signed 16-bit range
// and packs the result little-endian.
func Encode(samples []float32) Blob {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(toPCM16(s)))
	}
	return Blob{Data: data, MIMEType: MIMEType}
}

func toPCM16(s float32) int16 {
	if s != s { // NaN
		return 0
	}
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	if s < 0 {
		return int16(s * 32768)
	}
	return int16(s * 32767)
}

// DecodeFloat32LE converts raw f32le bytes into samples. A trailing partial
// sample is ignored.
func DecodeFloat32LE(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

// PCM16Duration returns how much audio n bytes of mono 16-bit PCM hold at rate.
func PCM16Duration(n, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	samples := n / 2
	return time.Duration(samples) * time.Second / time.Duration(rate)
}
