package sketch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()

	assert.Equal(t, 5, p.KernelSize)
	assert.Zero(t, p.Sigma)
	assert.Equal(t, float32(30), p.LowThreshold)
	assert.Equal(t, float32(70), p.HighThreshold)
	assert.Equal(t, 256.0, p.Scale)
	assert.Equal(t, uint8(0), p.ZeroDivisor)
	assert.NoError(t, p.Validate())
	assert.Equal(t, p, Default().Params())
}

func TestParamsValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"even kernel", func(p *Params) { p.KernelSize = 4 }},
		{"zero kernel", func(p *Params) { p.KernelSize = 0 }},
		{"negative kernel", func(p *Params) { p.KernelSize = -3 }},
		{"negative sigma", func(p *Params) { p.Sigma = -1 }},
		{"negative low threshold", func(p *Params) { p.LowThreshold = -1 }},
		{"low above high", func(p *Params) { p.LowThreshold, p.HighThreshold = 90, 20 }},
		{"zero scale", func(p *Params) { p.Scale = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)

			err := p.Validate()
			assert.ErrorIs(t, err, ErrInvalidParams)

			_, err = New(p)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestNew_CustomParams(t *testing.T) {
	p := DefaultParams()
	p.KernelSize = 7
	p.Sigma = 1.5

	pipeline, err := New(p)
	require.NoError(t, err)
	assert.Equal(t, 7, pipeline.Params().KernelSize)
}
