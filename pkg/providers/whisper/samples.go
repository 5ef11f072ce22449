package whisper

import (
	"github.com/mwidjaja/callscribe/pkg/audio"
	"github.com/zeozeozeo/gomplerate"
)

func decodeWAV(data []byte) ([]int16, int, error) {
	return audio.DecodeWAV(data)
}

// resample converts capture-rate samples (typically 48 kHz) to the model rate.
func resample(samples []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate {
		return samples
	}
	resampler, err := gomplerate.NewResampler(1, fromRate, toRate)
	if err != nil {
		return samples
	}
	return resampler.ResampleInt16(samples)
}

// toFloat32 normalizes int16 samples to [-1, 1].
func toFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}
