// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package material implements the material model used in
// the engine.
package material

import (
	"errors"

	"github.com/gviegas/lumen/engine/internal/shader"
	"github.com/gviegas/lumen/engine/texture"
)

const prefix = "material: "

func newErr(reason string) error { return errors.New(prefix + reason) }

// Attr identifies a texture attribute of a material.
type Attr int

// Texture attributes.
const (
	BaseColorTex Attr = iota
	MetalRoughTex
	NormalTex
	OcclusionTex
	EmissiveTex

	AttrN
)

// Model identifies a material model.
type Model int

// Material models.
const (
	ModelPBR Model = iota
	ModelUnlit
)

// AlphaMode is the type of alpha modes.
type AlphaMode int

// Alpha modes.
const (
	// No transparency.
	// Alpha channel is unconditionally set to 1.0.
	AlphaOpaque AlphaMode = iota
	// Composition with background.
	AlphaBlend
	// Either fully opaque or fully transparent,
	// as determined by a cutoff value.
	AlphaMask
)

// Material defines the material properties to be applied
// to geometry during rendering.
// Textures are held through texture.Slot, so every
// texture referenced by a material is acquired until it
// is replaced or the material is destroyed.
type Material struct {
	model     Model
	slots     [AttrN]texture.Slot
	uvSets    [AttrN]int
	layout    shader.MaterialLayout
	alphaMode AlphaMode
	version   uint64

	// Name for the material.
	// It is only used for logging.
	Name string
}

// TexRef identifies a 2D texture, with sampling
// operations using a given UV set.
type TexRef struct {
	Texture *texture.Texture
	UVSet   int
}

// UV sets matching mesh.UV* semantics.
const (
	// mesh.UV0.
	UVSet0 = iota
	// mesh.UV1.
	UVSet1
)

// BaseColor is the material's base color.
type BaseColor struct {
	TexRef
	Factor [4]float32
}

// MetalRough is the material's metallic-roughness.
type MetalRough struct {
	TexRef
	Metalness float32
	Roughness float32
}

// NormalMap is the material's normal map.
type NormalMap struct {
	TexRef
	Scale float32
}

// OcclusionMap is the material's occlusion map.
type OcclusionMap struct {
	TexRef
	Strength float32
}

// EmissiveMap is the material's emissive map.
type EmissiveMap struct {
	TexRef
	Factor [3]float32
}

// PBR defines properties of the default material model.
type PBR struct {
	BaseColor   BaseColor
	MetalRough  MetalRough
	Normal      NormalMap
	Occlusion   OcclusionMap
	Emissive    EmissiveMap
	AlphaMode   AlphaMode
	AlphaCutoff float32
	DoubleSided bool
}

func alphaFlags(mode AlphaMode, doubleSided bool) (flags int32) {
	switch mode {
	case AlphaOpaque:
		flags |= shader.MatAOpaque
	case AlphaBlend:
		flags |= shader.MatABlend
	case AlphaMask:
		flags |= shader.MatAMask
	}
	if doubleSided {
		flags |= shader.MatDoubleSided
	}
	return
}

// shaderLayout creates the shader.MaterialLayout of p.
// It assumes that p is valid.
func (p *PBR) shaderLayout() (l shader.MaterialLayout) {
	l.SetColorFactor(p.BaseColor.Factor)
	l.SetMetalRough(p.MetalRough.Metalness, p.MetalRough.Roughness)
	l.SetNormScale(p.Normal.Scale)
	l.SetOccStrength(p.Occlusion.Strength)
	l.SetEmisFactor(p.Emissive.Factor)
	l.SetAlphaCutoff(p.AlphaCutoff)
	l.SetFlags(shader.MatPBR | alphaFlags(p.AlphaMode, p.DoubleSided))
	return
}

// Unlit defines properties of the unlit material model.
type Unlit struct {
	BaseColor   BaseColor
	AlphaMode   AlphaMode
	AlphaCutoff float32
	DoubleSided bool
}

// shaderLayout creates the shader.MaterialLayout of u.
// It assumes that u is valid.
func (u *Unlit) shaderLayout() (l shader.MaterialLayout) {
	l.SetColorFactor(u.BaseColor.Factor)
	l.SetAlphaCutoff(u.AlphaCutoff)
	l.SetFlags(shader.MatUnlit | alphaFlags(u.AlphaMode, u.DoubleSided))
	return
}

// NewPBR creates a new material using the default model.
func NewPBR(prop *PBR) (*Material, error) {
	if prop == nil {
		return nil, newErr("nil PBR")
	}
	if err := prop.validate(); err != nil {
		return nil, err
	}
	m := &Material{
		model:     ModelPBR,
		layout:    prop.shaderLayout(),
		alphaMode: prop.AlphaMode,
		version:   1,
	}
	for i, ref := range [AttrN]TexRef{
		prop.BaseColor.TexRef,
		prop.MetalRough.TexRef,
		prop.Normal.TexRef,
		prop.Occlusion.TexRef,
		prop.Emissive.TexRef,
	} {
		m.slots[i].Set(ref.Texture)
		m.uvSets[i] = ref.UVSet
	}
	return m, nil
}

// NewUnlit creates a new material using the unlit model.
func NewUnlit(prop *Unlit) (*Material, error) {
	if prop == nil {
		return nil, newErr("nil Unlit")
	}
	if err := prop.validate(); err != nil {
		return nil, err
	}
	m := &Material{
		model:     ModelUnlit,
		layout:    prop.shaderLayout(),
		alphaMode: prop.AlphaMode,
		version:   1,
	}
	m.slots[BaseColorTex].Set(prop.BaseColor.Texture)
	m.uvSets[BaseColorTex] = prop.BaseColor.UVSet
	return m, nil
}

// Model returns the material model of m.
func (m *Material) Model() Model { return m.model }

// AlphaMode returns the alpha mode of m.
func (m *Material) AlphaMode() AlphaMode { return m.alphaMode }

// IsTransparent returns whether m must be composed with
// the background. Transparent materials are drawn in the
// transparent layer by default.
func (m *Material) IsTransparent() bool { return m.alphaMode == AlphaBlend }

// Layout returns the packed shader data of m.
func (m *Material) Layout() *shader.MaterialLayout { return &m.layout }

// Version returns the current version of m.
// It is incremented on every change.
func (m *Material) Version() uint64 { return m.version }

// Texture returns the texture of the given attribute.
func (m *Material) Texture(attr Attr) *texture.Texture { return m.slots[attr].Texture() }

// UVSet returns the UV set of the given attribute.
func (m *Material) UVSet(attr Attr) int { return m.uvSets[attr] }

// SetTexture replaces the texture of the given
// attribute. The previous texture is released and t is
// acquired. t may be nil.
// Unlit materials only accept BaseColorTex.
func (m *Material) SetTexture(attr Attr, ref TexRef) error {
	if attr < 0 || attr >= AttrN {
		return newErr("undefined texture attribute")
	}
	if m.model == ModelUnlit && attr != BaseColorTex {
		return newErr("unlit material has no such texture attribute")
	}
	if err := ref.validate(true); err != nil {
		return err
	}
	if m.slots[attr].Texture() == ref.Texture && m.uvSets[attr] == ref.UVSet {
		return nil
	}
	m.slots[attr].Set(ref.Texture)
	m.uvSets[attr] = ref.UVSet
	m.version++
	return nil
}

// SetBaseColorFactor sets the base color factor.
func (m *Material) SetBaseColorFactor(f [4]float32) error {
	if err := (&BaseColor{Factor: f}).validate(); err != nil {
		return err
	}
	m.layout.SetColorFactor(f)
	m.version++
	return nil
}

// BaseColorFactor returns the base color factor.
func (m *Material) BaseColorFactor() [4]float32 { return m.layout.ColorFactor() }

// SetAlphaMode sets the alpha mode.
// Changing the alpha mode to or from AlphaBlend changes
// the default layer of meshes using m.
func (m *Material) SetAlphaMode(mode AlphaMode, cutoff float32) error {
	if err := validateAlphaMode(mode, cutoff); err != nil {
		return err
	}
	flags := m.layout.Flags() &^ (shader.MatAOpaque | shader.MatABlend | shader.MatAMask)
	m.layout.SetFlags(flags | alphaFlags(mode, false))
	m.layout.SetAlphaCutoff(cutoff)
	m.alphaMode = mode
	m.version++
	return nil
}

// IsDoubleSided returns whether back faces of m are
// visible.
func (m *Material) IsDoubleSided() bool { return m.layout.Flags()&shader.MatDoubleSided != 0 }

// Destroy releases every texture of m.
// m must not be used afterwards.
func (m *Material) Destroy() {
	for i := range m.slots {
		m.slots[i].Clear()
	}
	*m = Material{}
}

// Parameter validation for New* functions.

func (p *TexRef) validate(optional bool) error {
	if p.Texture == nil {
		if optional {
			return nil
		}
		return newErr("nil TexRef.Texture")
	}
	if p.Texture.IsCube() {
		return newErr("TexRef.Texture is a cube texture")
	}
	if !p.Texture.PixelFmt().IsColor() {
		return newErr("TexRef.Texture has non-color format")
	}
	switch p.UVSet {
	case UVSet0, UVSet1:
	default:
		return newErr("undefined UV set constant")
	}
	return nil
}

func (p *BaseColor) validate() error {
	if err := p.TexRef.validate(true); err != nil {
		return err
	}
	for _, x := range p.Factor {
		if x < 0 || x > 1 {
			return newErr("BaseColor.Factor outside [0.0, 1.0] interval")
		}
	}
	return nil
}

func (p *MetalRough) validate() error {
	if err := p.TexRef.validate(true); err != nil {
		return err
	}
	if p.Metalness < 0 || p.Metalness > 1 {
		return newErr("MetalRough.Metalness outside [0.0, 1.0] interval")
	}
	if p.Roughness < 0 || p.Roughness > 1 {
		return newErr("MetalRough.Roughness outside [0.0, 1.0] interval")
	}
	return nil
}

func (p *NormalMap) validate() error {
	if err := p.TexRef.validate(true); err != nil {
		return err
	}
	if p.Scale < 0 {
		return newErr("NormalMap.Scale less than 0.0")
	}
	return nil
}

func (p *OcclusionMap) validate() error {
	if err := p.TexRef.validate(true); err != nil {
		return err
	}
	if p.Strength < 0 || p.Strength > 1 {
		return newErr("OcclusionMap.Strength outside [0.0, 1.0] interval")
	}
	return nil
}

func (p *EmissiveMap) validate() error {
	if err := p.TexRef.validate(true); err != nil {
		return err
	}
	for _, x := range p.Factor {
		if x < 0 || x > 1 {
			return newErr("EmissiveMap.Factor outside [0.0, 1.0] interval")
		}
	}
	return nil
}

func validateAlphaMode(mode AlphaMode, cutoff float32) error {
	switch mode {
	case AlphaOpaque, AlphaBlend:
	case AlphaMask:
		if cutoff < 0 || cutoff > 1 {
			return newErr("alpha cutoff outside [0.0, 1.0] interval")
		}
	default:
		return newErr("undefined alpha mode constant")
	}
	return nil
}

func (p *PBR) validate() error {
	if err := p.BaseColor.validate(); err != nil {
		return err
	}
	if err := p.MetalRough.validate(); err != nil {
		return err
	}
	if err := p.Normal.validate(); err != nil {
		return err
	}
	if err := p.Occlusion.validate(); err != nil {
		return err
	}
	if err := p.Emissive.validate(); err != nil {
		return err
	}
	return validateAlphaMode(p.AlphaMode, p.AlphaCutoff)
}

func (p *Unlit) validate() error {
	if err := p.BaseColor.validate(); err != nil {
		return err
	}
	return validateAlphaMode(p.AlphaMode, p.AlphaCutoff)
}
