// Package formats provides readers and writers for on-disk mesh formats.
//
// Binary PLY comes in two fixed schemas: the instance schema produced by the
// scanner (position, normal, texcoord, color; faces with material, segment
// and category ids) and the compact semantic schema (position, color; faces
// with an object id). Records are little-endian and read one at a time, so
// callers control buffering and allocation.
package formats
