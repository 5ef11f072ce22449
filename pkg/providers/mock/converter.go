package mock

import (
	"context"
	"sync"

	"github.com/mwidjaja/callscribe/pkg/audio"
)

// Converter is a pass-through audio converter for tests. It returns the
// input bytes unchanged and optionally fails on demand.
type Converter struct {
	mu     sync.Mutex
	inputs [][]byte

	Err error
}

func NewConverter() *Converter { return &Converter{} }

func (c *Converter) Name() string { return "mock_converter" }

func (c *Converter) Convert(_ context.Context, pcm []byte) ([]byte, error) {
	c.mu.Lock()
	cp := make([]byte, len(pcm))
	copy(cp, pcm)
	c.inputs = append(c.inputs, cp)
	err := c.Err
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return cp, nil
}

// Inputs returns every PCM batch the converter received, in order.
func (c *Converter) Inputs() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.inputs))
	copy(out, c.inputs)
	return out
}

var _ audio.Converter = (*Converter)(nil)
