// Package formats provides parsers for QuakeII file formats: BSP maps,
// entity lumps, WAL wall textures and PCX images.
//
// Parsers take raw bytes, never log, and report problems as wrapped sentinel
// errors so callers can classify them with errors.Is.
package formats
