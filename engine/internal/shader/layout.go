// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package shader defines the packed uniform blocks that
// the engine hands to driver.Shader.Setup.
package shader

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// FrameLayout is the layout of per-frame, global data.
// It is defined as follows:
//
//	[0:16]  | view-projection matrix
//	[16:32] | view matrix
//	[32:48] | projection matrix
//	[48]    | elapsed time in seconds
//	[49]    | number of lights
//	[50]    | viewport's x
//	[51]    | viewport's y
//	[52]    | viewport's width
//	[53]    | viewport's height
//	[54]    | viewport's near plane
//	[55]    | viewport's far plane
//	[56:59] | camera position
//	[59]    | specular pre-filter roughness
//	[60]    | number of specular levels
//	[61:64] | (unused)
type FrameLayout [64]float32

// SetVP sets the view-projection matrix.
func (l *FrameLayout) SetVP(m *mgl32.Mat4) { copy(l[:16], m[:]) }

// SetV sets the view matrix.
func (l *FrameLayout) SetV(m *mgl32.Mat4) { copy(l[16:32], m[:]) }

// SetP sets the projection matrix.
func (l *FrameLayout) SetP(m *mgl32.Mat4) { copy(l[32:48], m[:]) }

// SetTime sets the elapsed time.
func (l *FrameLayout) SetTime(d time.Duration) { l[48] = float32(d.Seconds()) }

// SetNLight sets the number of lights.
func (l *FrameLayout) SetNLight(n int) { l[49] = float32(n) }

// SetBounds sets the viewport bounds.
func (l *FrameLayout) SetBounds(x, y, width, height, znear, zfar float32) {
	l[50] = x
	l[51] = y
	l[52] = width
	l[53] = height
	l[54] = znear
	l[55] = zfar
}

// SetEye sets the camera position.
func (l *FrameLayout) SetEye(p mgl32.Vec3) { copy(l[56:59], p[:]) }

// SetRoughness sets the roughness used by specular
// pre-filtering.
func (l *FrameLayout) SetRoughness(r float32) { l[59] = r }

// SetSpecularLevels sets the number of mip levels of the
// pre-filtered specular map.
func (l *FrameLayout) SetSpecularLevels(n int) { l[60] = float32(n) }

func fromInt(x int32) float32 { return math.Float32frombits(uint32(x)) }

// LightLayout is the layout of light data.
// It is defined as follows:
//
//	[0]     | whether the light is unused
//	[1]     | light type
//	[2]     | intensity
//	[3]     | range
//	[4:7]   | diffuse color
//	[7]     | angular scale
//	[8:11]  | position
//	[11]    | angular offset
//	[12:15] | direction
//	[15]    | whether the light casts shadows
//	[16:19] | ambient color
//	[19]    | shadow bias
//	[20:23] | specular color
//	[23]    | shadow strength
//	[24:40] | shadow view-projection matrix
type LightLayout [40]float32

// Types of light.
const (
	DirectLight int32 = iota
	PointLight
	SpotLight
)

// SetUnused sets whether the light is unused.
func (l *LightLayout) SetUnused(unused bool) {
	var bool32 int32
	if unused {
		bool32 = 1
	}
	l[0] = fromInt(bool32)
}

// SetType sets the light type.
func (l *LightLayout) SetType(typ int32) { l[1] = fromInt(typ) }

// SetIntensity sets the intensity.
func (l *LightLayout) SetIntensity(i float32) { l[2] = i }

// SetRange sets the range.
// Used for PointLight and SpotLight.
func (l *LightLayout) SetRange(rng float32) { l[3] = rng }

// SetColor sets the diffuse color.
func (l *LightLayout) SetColor(c mgl32.Vec3) { copy(l[4:7], c[:]) }

// SetAngScale sets the angular scale.
// Used for SpotLight.
func (l *LightLayout) SetAngScale(s float32) { l[7] = s }

// SetPosition sets the position.
// Used for PointLight and SpotLight.
func (l *LightLayout) SetPosition(p mgl32.Vec3) { copy(l[8:11], p[:]) }

// SetAngOffset sets the angular offset.
// Used for SpotLight.
func (l *LightLayout) SetAngOffset(off float32) { l[11] = off }

// SetDirection sets the direction.
// Used for DirectLight and SpotLight.
func (l *LightLayout) SetDirection(d mgl32.Vec3) { copy(l[12:15], d[:]) }

// SetCastShadow sets whether the light casts shadows.
func (l *LightLayout) SetCastShadow(cast bool) {
	var bool32 int32
	if cast {
		bool32 = 1
	}
	l[15] = fromInt(bool32)
}

// SetAmbient sets the ambient color.
func (l *LightLayout) SetAmbient(c mgl32.Vec3) { copy(l[16:19], c[:]) }

// SetShadowBias sets the depth bias of shadow lookups.
func (l *LightLayout) SetShadowBias(b float32) { l[19] = b }

// SetSpecular sets the specular color.
func (l *LightLayout) SetSpecular(c mgl32.Vec3) { copy(l[20:23], c[:]) }

// SetShadowStrength sets the shadow strength.
func (l *LightLayout) SetShadowStrength(s float32) { l[23] = s }

// SetShadowVP sets the light-space view-projection matrix.
func (l *LightLayout) SetShadowVP(m *mgl32.Mat4) { copy(l[24:40], m[:]) }

// DrawableLayout is the layout of drawable data.
// It is defined as follows:
//
//	[0:16]  | world matrix
//	[16:32] | normal matrix
//	[32:36] | selection color
//	[36]    | ID
//	[37:48] | (unused)
type DrawableLayout [48]float32

// SetWorld sets the world matrix.
func (l *DrawableLayout) SetWorld(m *mgl32.Mat4) { copy(l[:16], m[:]) }

// SetNormal sets the normal matrix.
func (l *DrawableLayout) SetNormal(m *mgl32.Mat4) { copy(l[16:32], m[:]) }

// SetSelColor sets the selection color.
func (l *DrawableLayout) SetSelColor(c [4]float32) { copy(l[32:36], c[:]) }

// SetID sets the drawable's ID.
func (l *DrawableLayout) SetID(id uint32) { l[36] = math.Float32frombits(id) }

// MaterialLayout is the layout of material data.
// It is defined as follows:
//
//	[0:4]   | base color factor
//	[4]     | metalness
//	[5]     | roughness
//	[6]     | normal scale
//	[7]     | occlusion strength
//	[8:11]  | emissive factor
//	[11]    | alpha cutoff
//	[12]    | flags
//	[13:16] | (unused)
type MaterialLayout [16]float32

// Material flags.
const (
	MatPBR int32 = 1 << iota
	MatUnlit
	MatAOpaque
	MatABlend
	MatAMask
	MatDoubleSided
)

// SetColorFactor sets the base color factor.
func (l *MaterialLayout) SetColorFactor(f [4]float32) { copy(l[:4], f[:]) }

// ColorFactor returns the base color factor.
func (l *MaterialLayout) ColorFactor() (f [4]float32) {
	copy(f[:], l[:4])
	return
}

// SetMetalRough sets the metalness and roughness.
func (l *MaterialLayout) SetMetalRough(metal, rough float32) { l[4], l[5] = metal, rough }

// SetNormScale sets the normal scale.
func (l *MaterialLayout) SetNormScale(s float32) { l[6] = s }

// SetOccStrength sets the occlusion strength.
func (l *MaterialLayout) SetOccStrength(s float32) { l[7] = s }

// SetEmisFactor sets the emissive factor.
func (l *MaterialLayout) SetEmisFactor(f [3]float32) { copy(l[8:11], f[:]) }

// SetAlphaCutoff sets the alpha cutoff.
func (l *MaterialLayout) SetAlphaCutoff(c float32) { l[11] = c }

// SetFlags sets the material flags.
func (l *MaterialLayout) SetFlags(flags int32) { l[12] = fromInt(flags) }

// Flags returns the material flags.
func (l *MaterialLayout) Flags() int32 { return int32(math.Float32bits(l[12])) }
