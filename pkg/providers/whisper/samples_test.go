package whisper

import "testing"

func TestToFloat32Normalizes(t *testing.T) {
	out := toFloat32([]int16{0, 16384, -16384, 32767, -32768})
	if out[0] != 0 {
		t.Fatalf("expected 0, got %f", out[0])
	}
	if out[4] != -1.0 {
		t.Fatalf("expected -1.0, got %f", out[4])
	}
	for i, v := range out {
		if v < -1.0 || v > 1.0 {
			t.Fatalf("sample %d out of range: %f", i, v)
		}
	}
}

func TestResampleSameRateIsIdentity(t *testing.T) {
	in := []int16{1, 2, 3}
	out := resample(in, 16000, 16000)
	if len(out) != len(in) {
		t.Fatalf("identity resample changed length: %d", len(out))
	}
}

func TestResampleHalvesRate(t *testing.T) {
	in := make([]int16, 480)
	out := resample(in, 48000, 16000)
	if len(out) == 0 || len(out) >= len(in) {
		t.Fatalf("downsampling 48k->16k should shrink sample count, got %d from %d", len(out), len(in))
	}
}
