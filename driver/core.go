// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import (
	"github.com/go-gl/mathgl/mgl32"
)

// GPU is the main interface to an underlying driver
// implementation.
// It is used to create backend objects and to execute
// the per-frame protocol:
//
//  1. call BeginTarget (nil targets the canvas)
//  2. call SetBlend to activate a pipeline
//  3. for each draw, call Geometry.Bind, Shader.Setup
//     and Geometry.Draw
//  4. repeat 2-3 as needed
//  5. call EndTarget
//
// BeginTarget calls must not be nested.
// A GPU is obtained from a call to Driver.Open.
type GPU interface {
	// Driver returns the Driver that owns the GPU.
	Driver() Driver

	// NewShader creates the backend program that
	// implements the given kind.
	// It returns ErrUnsupported if the kind is not
	// implemented by the driver.
	NewShader(kind ShaderKind) (Shader, error)

	// NewGeometry creates vertex/index storage for
	// the given geometry data.
	NewGeometry(data *GeometryData) (Geometry, error)

	// NewImage creates a new image.
	NewImage(param *ImageParam) (Image, error)

	// NewTarget creates a render target from a set of
	// image attachments.
	// All attachments must have the same size, and
	// either all or none of them must be cube images.
	NewTarget(att []Attachment) (Target, error)

	// SetCanvas resizes the on-screen canvas.
	SetCanvas(width, height int)

	// Canvas returns the size of the on-screen canvas.
	Canvas() (width, height int)

	// BeginTarget begins rendering into t.
	// If t is nil, the canvas is used.
	// face selects the cube face (0 to 5) of cube
	// targets and must be -1 otherwise.
	// If clear is nil, previous contents are kept.
	BeginTarget(t Target, face int, clear *ClearValue)

	// EndTarget ends rendering into the current
	// target.
	EndTarget()

	// SetBlend sets the blend state used by subsequent
	// draws in the current target.
	SetBlend(b *BlendState)

	// ReadPixels reads back a rectangle of RGBA8 pixels
	// from the first color attachment of t (or from the
	// canvas if t is nil). The origin is the top-left
	// corner. len(dst) must be at least 4*width*height.
	ReadPixels(t Target, x, y, width, height int, dst []byte) error

	// Limits returns the implementation limits.
	// They are immutable for the lifetime of the GPU.
	Limits() Limits
}

// Destroyer is the interface that wraps the Destroy method.
// Types that implement this interface may allocate external
// memory that is not managed by GC, so Destroy must be
// called explicitly to ensure such memory is deallocated.
type Destroyer interface {
	Destroy()
}

// ShaderKind identifies one of the fixed set of programs
// that a backend must provide.
type ShaderKind int

// Shader kinds.
const (
	// Physically-based shading with IBL and shadows.
	SPBR ShaderKind = iota
	// Base color only.
	SUnlit
	// Environment cube drawn behind everything.
	SSky
	// Depth-only output for shadow maps.
	SDepth
	// Flat color output of Uniforms.Color.
	SSelection
	// Flat color output that discards when
	// Uniforms.Discard is set.
	SHighlight
	// Projection of an equirectangular image onto
	// the faces of a cube.
	SCubeCapture
	// Diffuse irradiance convolution.
	SIrradiance
	// Specular pre-filtering (roughness in Uniforms.Frame[0]).
	SSpecular
	// Split-sum BRDF integration.
	SBRDF

	ShaderKindN
)

var shaderKindNames = [ShaderKindN]string{
	"pbr", "unlit", "sky", "depth", "selection",
	"highlight", "cube-capture", "irradiance", "specular", "brdf",
}

func (k ShaderKind) String() string {
	if k < 0 || k >= ShaderKindN {
		return "invalid"
	}
	return shaderKindNames[k]
}

// Shader is the interface that defines a backend program.
type Shader interface {
	Destroyer

	// Kind returns the kind of program.
	Kind() ShaderKind

	// Setup uploads the given uniforms and makes the
	// program current for the next Geometry.Draw call.
	Setup(u *Uniforms) error
}

// TexSlot identifies a texture binding point in
// Uniforms.Textures.
type TexSlot int

// Texture slots.
const (
	TBaseColor TexSlot = iota
	TMetalRough
	TNormal
	TOcclusion
	TEmissive
	TShadow
	TIrradiance
	TSpecular
	TBRDF
	TEnvironment
	TSource

	TexSlotN
)

// TexBinding pairs an image with its sampling state.
type TexBinding struct {
	Image    Image
	Sampling Sampling
}

// Uniforms is the data that the engine hands to
// Shader.Setup for a single draw.
// The packed blocks follow the layouts documented by the
// engine; backends that do not need a block ignore it.
type Uniforms struct {
	Model      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4

	// Frame is the packed per-frame block.
	Frame []float32
	// Drawable is the packed per-draw block.
	Drawable []float32
	// Material is the packed material block.
	Material []float32
	// Lights contains NLight packed lights.
	Lights []float32
	NLight int

	// Color is the flat output color of SSelection and
	// SHighlight programs, and the base color factor
	// of shaded programs.
	Color [4]float32
	// Discard causes SHighlight to discard every
	// fragment of the draw.
	Discard bool

	Textures [TexSlotN]TexBinding
}

// Topology is the type of primitive topologies.
type Topology int

// Primitive topologies.
const (
	TTriangle Topology = iota
	TTriangleStrip
	TLine
	TLineStrip
	TPoint
)

// CullMode is the type of cull modes, which
// determines primitive culling based on triangle
// facing direction.
type CullMode int

// Cull modes.
const (
	CNone CullMode = iota
	CFront
	CBack
)

// GeometryData describes vertex and index data.
// Positions, Normals and Tangents hold three floats
// per vertex, UVs hold two.
// If Indices is empty, vertices are drawn in order.
type GeometryData struct {
	Topology  Topology
	Cull      CullMode
	Clockwise bool
	Positions []float32
	Normals   []float32
	UVs       []float32
	Tangents  []float32
	Indices   []uint32
}

// Geometry is the interface that defines backend storage
// of vertex and index data.
type Geometry interface {
	Destroyer

	// Update replaces the geometry's data.
	Update(data *GeometryData) error

	// Bind binds the geometry's buffers for the next
	// draw call.
	Bind() error

	// Draw issues a draw call using the last program
	// set up through Shader.Setup.
	Draw()
}

// BlendOp is the type of blend operations.
type BlendOp int

// Blend operations.
const (
	BAdd BlendOp = iota
	BSubtract
	BRevSubtract
	BMin
	BMax
)

// BlendFac is the type of blend factors.
type BlendFac int

// Blend factors.
const (
	BZero BlendFac = iota
	BOne
	BSrcColor
	BInvSrcColor
	BSrcAlpha
	BInvSrcAlpha
	BDstColor
	BInvDstColor
	BDstAlpha
	BInvDstAlpha
	BSrcAlphaSaturated
)

// BlendState defines the fixed-function blend state.
// In the arrays that follow, [0] is for color and
// [1] is for alpha.
type BlendState struct {
	// Blend enables blending.
	Blend  bool
	Op     [2]BlendOp
	SrcFac [2]BlendFac
	DstFac [2]BlendFac
}

// Eval computes the result of blending src over dst
// according to b.
// Channel values are expected to be in [0, 1].
func (b *BlendState) Eval(src, dst [4]float32) (res [4]float32) {
	if !b.Blend {
		return src
	}
	fac := func(f BlendFac, c int) float32 {
		switch f {
		case BZero:
			return 0
		case BOne:
			return 1
		case BSrcColor:
			return src[c]
		case BInvSrcColor:
			return 1 - src[c]
		case BSrcAlpha:
			return src[3]
		case BInvSrcAlpha:
			return 1 - src[3]
		case BDstColor:
			return dst[c]
		case BInvDstColor:
			return 1 - dst[c]
		case BDstAlpha:
			return dst[3]
		case BInvDstAlpha:
			return 1 - dst[3]
		case BSrcAlphaSaturated:
			if c == 3 {
				return 1
			}
			return min(src[3], 1-dst[3])
		}
		return 1
	}
	for c := range res {
		i := 0
		if c == 3 {
			i = 1
		}
		s := src[c] * fac(b.SrcFac[i], c)
		d := dst[c] * fac(b.DstFac[i], c)
		switch b.Op[i] {
		case BAdd:
			res[c] = s + d
		case BSubtract:
			res[c] = s - d
		case BRevSubtract:
			res[c] = d - s
		case BMin:
			res[c] = min(src[c], dst[c])
		case BMax:
			res[c] = max(src[c], dst[c])
		}
		res[c] = max(0, min(res[c], 1))
	}
	return
}

// Usage is a mask indicating valid uses for an image.
type Usage int

// Usage flags for Image.
const (
	// The image can be sampled in shaders.
	UShaderSample Usage = 1 << iota
	// The image can be used as render target.
	URenderTarget
	// The image can be read back.
	UCopySrc
	// The image can be used for any purpose.
	UGeneric Usage = 1<<iota - 1
)

// PixelFmt describes the format of a pixel.
type PixelFmt int

// Pixel formats.
const (
	// Color, 8-bit channels.
	RGBA8un PixelFmt = iota
	RGBA8sRGB
	R8un
	// Color, 16-bit channels.
	RGBA16f
	RG16f
	// Color, 32-bit channels.
	RGBA32f
	// Depth/Stencil.
	D16un
	D32f
	D24unS8ui
)

// IsColor returns whether f is a color format.
func (f PixelFmt) IsColor() bool { return f >= RGBA8un && f <= RGBA32f }

// IsDepth returns whether f is a depth format.
func (f PixelFmt) IsDepth() bool { return f >= D16un && f <= D24unS8ui }

// Size returns the size in bytes of a single pixel.
func (f PixelFmt) Size() int {
	switch f {
	case RGBA8un, RGBA8sRGB, RG16f, D32f, D24unS8ui:
		return 4
	case R8un:
		return 1
	case RGBA16f:
		return 8
	case RGBA32f:
		return 16
	case D16un:
		return 2
	}
	return 0
}

// Dim3D is a three-dimensional size.
type Dim3D struct {
	Width, Height, Depth int
}

// ImageParam describes the parameters of an image.
// Cube images have six layers, indexed by face.
type ImageParam struct {
	PixelFmt
	Dim3D
	Cube   bool
	Levels int
	Usage  Usage
}

// Image is the interface that defines a GPU image.
type Image interface {
	Destroyer

	// Param returns the parameters used to create
	// the image.
	Param() ImageParam

	// Write copies CPU data to the given layer and
	// mip level of the image.
	// data must be tightly packed.
	Write(layer, level int, data []byte) error
}

// Filter is the type of sampler filters.
type Filter int

// Filters.
const (
	FNearest Filter = iota
	FLinear
	// FNoMipmap forces mip level 0 to be used.
	// It is only valid as the mip filter of a sampler.
	FNoMipmap
)

// AddrMode is the type of sampler address modes.
type AddrMode int

// Address modes.
const (
	AWrap AddrMode = iota
	AMirror
	AClamp
)

// Sampling describes image sampler state.
type Sampling struct {
	Min    Filter
	Mag    Filter
	Mipmap Filter
	AddrU  AddrMode
	AddrV  AddrMode
	AddrW  AddrMode
}

// AttachPoint identifies an attachment of a render target.
type AttachPoint int

// Attachment points.
const (
	AColor0 AttachPoint = iota
	AColor1
	AColor2
	AColor3
	ADepth

	AttachPointN
)

func (p AttachPoint) String() string {
	switch p {
	case AColor0:
		return "color0"
	case AColor1:
		return "color1"
	case AColor2:
		return "color2"
	case AColor3:
		return "color3"
	case ADepth:
		return "depth"
	}
	return "invalid"
}

// Attachment is a single image attachment of a render
// target. Level selects the mip level rendered to.
type Attachment struct {
	Point AttachPoint
	Image Image
	Level int
}

// Target is the interface that defines an off-screen
// render target.
type Target interface {
	Destroyer

	// Size returns the size of the target at the
	// level rendered to.
	Size() Dim3D

	// Cube returns whether the target's attachments are
	// cube images.
	Cube() bool
}

// ClearValue defines clear values for color and depth
// attachments.
type ClearValue struct {
	Color [4]float32
	Depth float32
}

// Limits describes implementation limits.
// These may vary across drivers and devices.
type Limits struct {
	// Maximum width and height of 2D images.
	MaxImage2D int
	// Maximum width and height of cube images.
	MaxImageCube int
	// Maximum width and height of render targets.
	MaxRenderSize [2]int
	// Maximum number of color attachments in a
	// render target.
	MaxColorTargets int
}
