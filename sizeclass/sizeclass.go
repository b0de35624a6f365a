// Package sizeclass holds the static table mapping a Data Matrix symbol
// size to its pixel dimension, raw byte capacity, and rasterizer index.
package sizeclass

import "fmt"

// Class describes one square Data Matrix size, identified by its side
// length in dots.
type Class struct {
	Size         int // side length in dots, e.g. 96
	RawBytes     int // raw symbol capacity including zint's internal overhead
	RasterizerID int // index passed to the external rasterizer (matches zint's option_2)
}

// ECIBytes is the usable data capacity of the symbol, net of the 6 bytes
// of internal overhead every size class in this table reserves.
func (c Class) ECIBytes() int {
	if c.RawBytes < 6 {
		return 0
	}
	return c.RawBytes - 6
}

// PacketSize is the total size of a three-layer packet at this class:
// packet_size = 3 * eci_bytes.
func (c Class) PacketSize() int {
	return 3 * c.ECIBytes()
}

// BlockSize is the payload a packet carries once the 6-byte striped
// index is subtracted: block_size = packet_size - 6.
func (c Class) BlockSize() int {
	return c.PacketSize() - 6
}

// Table is the immutable set of supported size classes, keyed by their
// side length in dots. It mirrors the source project's zint-backed
// dminfo table; values are never mutated at runtime.
var Table = map[int]Class{
	10:  {Size: 10, RawBytes: 3, RasterizerID: 1},
	12:  {Size: 12, RawBytes: 5, RasterizerID: 2},
	14:  {Size: 14, RawBytes: 8, RasterizerID: 3},
	16:  {Size: 16, RawBytes: 12, RasterizerID: 4},
	18:  {Size: 18, RawBytes: 18, RasterizerID: 5},
	20:  {Size: 20, RawBytes: 22, RasterizerID: 6},
	22:  {Size: 22, RawBytes: 30, RasterizerID: 7},
	24:  {Size: 24, RawBytes: 36, RasterizerID: 8},
	26:  {Size: 26, RawBytes: 44, RasterizerID: 9},
	32:  {Size: 32, RawBytes: 62, RasterizerID: 10},
	36:  {Size: 36, RawBytes: 86, RasterizerID: 11},
	40:  {Size: 40, RawBytes: 114, RasterizerID: 12},
	44:  {Size: 44, RawBytes: 144, RasterizerID: 13},
	48:  {Size: 48, RawBytes: 174, RasterizerID: 14},
	52:  {Size: 52, RawBytes: 204, RasterizerID: 15},
	64:  {Size: 64, RawBytes: 280, RasterizerID: 16},
	72:  {Size: 72, RawBytes: 368, RasterizerID: 17},
	80:  {Size: 80, RawBytes: 456, RasterizerID: 18},
	88:  {Size: 88, RawBytes: 576, RasterizerID: 19},
	96:  {Size: 96, RawBytes: 696, RasterizerID: 20},
	104: {Size: 104, RawBytes: 816, RasterizerID: 21},
	120: {Size: 120, RawBytes: 1050, RasterizerID: 22},
	132: {Size: 132, RawBytes: 1304, RasterizerID: 23},
	144: {Size: 144, RawBytes: 1558, RasterizerID: 24},
}

// Default is the size class used when the sender and receiver don't
// negotiate one explicitly: 96x96, 690 ECI bytes.
const Default = 96

// Lookup returns the Class for the given symbol size, or an error if
// the size isn't in Table.
func Lookup(size int) (Class, error) {
	c, ok := Table[size]
	if !ok {
		return Class{}, fmt.Errorf("sizeclass: unsupported symbol size %d", size)
	}
	return c, nil
}
