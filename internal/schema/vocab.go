package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/vk/gfxprobe/internal/hal"
)

// The document's enumerated fields use fixed symbolic vocabularies. Every
// lookup is exhaustive: an unknown token is a document error naming the
// accepted tokens, never a silent default.

var formatTokens = map[string]gputypes.TextureFormat{
	"r8-unorm":              gputypes.TextureFormatR8Unorm,
	"rgba8-unorm":           gputypes.TextureFormatRGBA8Unorm,
	"rgba8-srgb":            gputypes.TextureFormatRGBA8UnormSrgb,
	"bgra8-unorm":           gputypes.TextureFormatBGRA8Unorm,
	"bgra8-srgb":            gputypes.TextureFormatBGRA8UnormSrgb,
	"r32-float":             gputypes.TextureFormatR32Float,
	"rg32-float":            gputypes.TextureFormatRG32Float,
	"rgba32-float":          gputypes.TextureFormatRGBA32Float,
	"depth24-plus-stencil8": gputypes.TextureFormatDepth24PlusStencil8,
}

var layoutTokens = map[string]hal.ImageLayout{
	"undefined":                        hal.LayoutUndefined,
	"general":                          hal.LayoutGeneral,
	"color-attachment-optimal":         hal.LayoutColorAttachment,
	"depth-stencil-attachment-optimal": hal.LayoutDepthStencilAttachment,
	"shader-read-only-optimal":         hal.LayoutShaderReadOnly,
	"transfer-src-optimal":             hal.LayoutTransferSrc,
	"transfer-dst-optimal":             hal.LayoutTransferDst,
}

var loadOpTokens = map[string]gputypes.LoadOp{
	"load":  gputypes.LoadOpLoad,
	"clear": gputypes.LoadOpClear,
}

var storeOpTokens = map[string]gputypes.StoreOp{
	"store":   gputypes.StoreOpStore,
	"discard": gputypes.StoreOpDiscard,
}

var aspectTokens = map[string]hal.Aspect{
	"color":   hal.AspectColor,
	"depth":   hal.AspectDepth,
	"stencil": hal.AspectStencil,
}

var imageUsageTokens = map[string]gputypes.TextureUsage{
	"render-attachment": gputypes.TextureUsageRenderAttachment,
	"texture-binding":   gputypes.TextureUsageTextureBinding,
	"storage-binding":   gputypes.TextureUsageStorageBinding,
	"copy-src":          gputypes.TextureUsageCopySrc,
	"copy-dst":          gputypes.TextureUsageCopyDst,
}

var bufferUsageTokens = map[string]gputypes.BufferUsage{
	"vertex":   gputypes.BufferUsageVertex,
	"index":    gputypes.BufferUsageIndex,
	"uniform":  gputypes.BufferUsageUniform,
	"storage":  gputypes.BufferUsageStorage,
	"copy-src": gputypes.BufferUsageCopySrc,
	"copy-dst": gputypes.BufferUsageCopyDst,
	"map-read": gputypes.BufferUsageMapRead,
}

var dimensionTokens = map[string]gputypes.TextureDimension{
	"d1": gputypes.TextureDimension1D,
	"d2": gputypes.TextureDimension2D,
	"d3": gputypes.TextureDimension3D,
}

var indexFormatTokens = map[string]hal.IndexFormat{
	"uint16": hal.IndexUint16,
	"uint32": hal.IndexUint32,
}

// lookupToken resolves token in a vocabulary, reporting the accepted tokens
// on a miss.
func lookupToken[T any](vocab map[string]T, field, token string) (T, error) {
	if v, ok := vocab[token]; ok {
		return v, nil
	}
	var zero T
	accepted := make([]string, 0, len(vocab))
	for t := range vocab {
		accepted = append(accepted, t)
	}
	sort.Strings(accepted)
	return zero, fmt.Errorf("unrecognized %s %q (accepted: %s)", field, token, strings.Join(accepted, ", "))
}

func parseFormat(token string) (gputypes.TextureFormat, error) {
	return lookupToken(formatTokens, "format", token)
}

func parseLayout(token string) (hal.ImageLayout, error) {
	return lookupToken(layoutTokens, "layout", token)
}

func parseLoadOp(token string) (gputypes.LoadOp, error) {
	return lookupToken(loadOpTokens, "load op", token)
}

func parseStoreOp(token string) (gputypes.StoreOp, error) {
	return lookupToken(storeOpTokens, "store op", token)
}

func parseDimension(token string) (gputypes.TextureDimension, error) {
	return lookupToken(dimensionTokens, "dimension", token)
}

func parseIndexFormat(token string) (hal.IndexFormat, error) {
	return lookupToken(indexFormatTokens, "index format", token)
}

func parseAspects(tokens []string) (hal.Aspect, error) {
	var out hal.Aspect
	for _, t := range tokens {
		bit, err := lookupToken(aspectTokens, "aspect", t)
		if err != nil {
			return 0, err
		}
		out |= bit
	}
	return out, nil
}

func parseImageUsage(tokens []string) (gputypes.TextureUsage, error) {
	var out gputypes.TextureUsage
	for _, t := range tokens {
		bit, err := lookupToken(imageUsageTokens, "image usage", t)
		if err != nil {
			return 0, err
		}
		out |= bit
	}
	return out, nil
}

func parseBufferUsage(tokens []string) (gputypes.BufferUsage, error) {
	var out gputypes.BufferUsage
	for _, t := range tokens {
		bit, err := lookupToken(bufferUsageTokens, "buffer usage", t)
		if err != nil {
			return 0, err
		}
		out |= bit
	}
	return out, nil
}
