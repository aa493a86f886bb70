package audio

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

func samplesOf(b Blob) []int16 {
	out := make([]int16, len(b.Data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b.Data[i*2:]))
	}
	return out
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
		want  []int16
	}{
		{"silence", []float32{0, 0}, []int16{0, 0}},
		{"full scale", []float32{1, -1}, []int16{32767, -32768}},
		{"half scale", []float32{0.5, -0.5}, []int16{16383, -16384}},
		{"clamped above", []float32{1.5, 42}, []int16{32767, 32767}},
		{"clamped below", []float32{-1.0001, -7}, []int16{-32768, -32768}},
		{"infinities", []float32{float32(math.Inf(1)), float32(math.Inf(-1))}, []int16{32767, -32768}},
		{"nan", []float32{float32(math.NaN())}, []int16{0}},
		{"empty", nil, []int16{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := Encode(tt.input)
			if blob.MIMEType != "audio/pcm;rate=16000" {
				t.Errorf("MIMEType = %q", blob.MIMEType)
			}
			if len(blob.Data) != len(tt.input)*2 {
				t.Fatalf("len(Data) = %d, want %d", len(blob.Data), len(tt.input)*2)
			}
			got := samplesOf(blob)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("sample %d = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEncode_LittleEndian(t *testing.T) {
	blob := Encode([]float32{1})
	if blob.Data[0] != 0xff || blob.Data[1] != 0x7f {
		t.Errorf("expected ff 7f, got %x %x", blob.Data[0], blob.Data[1])
	}
}

func TestEncode_Deterministic(t *testing.T) {
	in := make([]float32, ChunkSamples)
	for i := range in {
		in[i] = float32(math.Sin(float64(i) / 10))
	}
	a := Encode(in)
	b := Encode(in)
	if string(a.Data) != string(b.Data) {
		t.Error("encoding the same chunk twice gave different bytes")
	}
}

func TestEncode_Monotonic(t *testing.T) {
	prev := int16(math.MinInt16)
	for i := -1000; i <= 1000; i++ {
		v := samplesOf(Encode([]float32{float32(i) / 1000}))[0]
		if v < prev {
			t.Fatalf("encoding not monotonic at %d: %d < %d", i, v, prev)
		}
		prev = v
	}
}

func TestDecodeFloat32LE(t *testing.T) {
	raw := make([]byte, 4*3+2) // trailing partial sample
	binary.LittleEndian.PutUint32(raw[0:], math.Float32bits(0.25))
	binary.LittleEndian.PutUint32(raw[4:], math.Float32bits(-1))
	binary.LittleEndian.PutUint32(raw[8:], math.Float32bits(0))

	got := DecodeFloat32LE(raw)
	want := []float32{0.25, -1, 0}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPCM16Duration(t *testing.T) {
	if d := PCM16Duration(ChunkSamples*2, SampleRate); d != 256*time.Millisecond {
		t.Errorf("duration = %v, want 256ms", d)
	}
	if d := PCM16Duration(100, 0); d != 0 {
		t.Errorf("zero rate should give 0, got %v", d)
	}
}
