// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package render

import (
	"github.com/gviegas/lumen/driver"
)

// PipelineOptions describes the blend state of a
// Pipeline.
// SrcAlpha and DstAlpha must be either both set or both
// nil. When nil, alpha uses the RGB factors.
type PipelineOptions struct {
	Blend    bool
	Equation driver.BlendOp
	SrcRGB   driver.BlendFac
	DstRGB   driver.BlendFac
	SrcAlpha *driver.BlendFac
	DstAlpha *driver.BlendFac
}

// Pipeline is the fixed-function state activated before
// the draws of a queue layer.
type Pipeline struct {
	state driver.BlendState
}

// NewPipeline creates a new pipeline.
// A nil opts creates an opaque pipeline.
func NewPipeline(opts *PipelineOptions) (*Pipeline, error) {
	if opts == nil {
		return OpaquePipeline(), nil
	}
	if (opts.SrcAlpha == nil) != (opts.DstAlpha == nil) {
		return nil, ErrAlphaFactors
	}
	srcA, dstA := opts.SrcRGB, opts.DstRGB
	if opts.SrcAlpha != nil {
		srcA, dstA = *opts.SrcAlpha, *opts.DstAlpha
	}
	return &Pipeline{driver.BlendState{
		Blend:  opts.Blend,
		Op:     [2]driver.BlendOp{opts.Equation, opts.Equation},
		SrcFac: [2]driver.BlendFac{opts.SrcRGB, srcA},
		DstFac: [2]driver.BlendFac{opts.DstRGB, dstA},
	}}, nil
}

// OpaquePipeline returns a pipeline with blending
// disabled.
func OpaquePipeline() *Pipeline {
	return &Pipeline{driver.BlendState{
		Op:     [2]driver.BlendOp{driver.BAdd, driver.BAdd},
		SrcFac: [2]driver.BlendFac{driver.BOne, driver.BOne},
		DstFac: [2]driver.BlendFac{driver.BZero, driver.BZero},
	}}
}

// TransparentOptions returns the options of the default
// transparent pipeline: straight alpha for color and
// One/OneMinusSrcAlpha for alpha.
func TransparentOptions() *PipelineOptions {
	srcA, dstA := driver.BOne, driver.BInvSrcAlpha
	return &PipelineOptions{
		Blend:    true,
		Equation: driver.BAdd,
		SrcRGB:   driver.BSrcAlpha,
		DstRGB:   driver.BInvSrcAlpha,
		SrcAlpha: &srcA,
		DstAlpha: &dstA,
	}
}

// TransparentPipeline returns the default transparent
// pipeline.
func TransparentPipeline() *Pipeline {
	p, err := NewPipeline(TransparentOptions())
	if err != nil {
		panic(err)
	}
	return p
}

// State returns the blend state of p.
func (p *Pipeline) State() driver.BlendState { return p.state }

// Blending returns whether p enables blending.
func (p *Pipeline) Blending() bool { return p.state.Blend }

// Activate sets p's blend state on gpu.
func (p *Pipeline) Activate(gpu driver.GPU) { gpu.SetBlend(&p.state) }
