package bsp

import "errors"

// Load errors. Every error returned by Load wraps exactly one of these.
var (
	// ErrNotFound means the map file does not exist in the filesystem.
	ErrNotFound = errors.New("map not found")
	// ErrCorruptHeader means bad magic, version or lump bounds.
	ErrCorruptHeader = errors.New("corrupt BSP header")
	// ErrCorruptLump means a lump has a bad size, count or cross-reference.
	ErrCorruptLump = errors.New("corrupt BSP lump")
	// ErrOutOfMemory means a lump declares more elements than the engine will allocate.
	ErrOutOfMemory = errors.New("BSP lump exceeds allocation limit")
	// ErrMissingTexture means a texinfo names a texture the resolver cannot supply.
	ErrMissingTexture = errors.New("missing texture")
)
