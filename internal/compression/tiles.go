package compression

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/nightwalk/server/internal/stripmap"
	"github.com/nightwalk/server/internal/terrain"
)

const (
	// Magic number for tile batch format
	TileMagic = "TILE"
	// Current format version
	TileVersion = 1
	// Gzip compression level (balance between size and speed)
	DefaultGzipLevel = 6
)

var (
	// ErrInvalidFormat is returned when decoding data that is not a tile batch.
	ErrInvalidFormat = errors.New("invalid tile batch")
	// ErrUnaligned is returned when a tile origin is not on the tile grid.
	ErrUnaligned = errors.New("tile not aligned to grid")
)

// TileHeader is the binary header of a tile batch.
type TileHeader struct {
	Magic    [4]byte // "TILE"
	Version  uint8
	Flags    uint8 // reserved
	TileSize uint16
	Count    uint32
	BaseRow  int32 // lowest row index in the batch; records store offsets from it
}

// tileRecord is one tile on the wire: 6 bytes.
type tileRecord struct {
	Col       uint16
	RowOffset uint16
	Category  uint8
	Variant   uint8
}

// EncodeTiles packs tiles into the binary batch format and gzips it. Tile
// origins must be multiples of tileSize with non-negative columns.
func EncodeTiles(tiles []terrain.Tile, tileSize float64) ([]byte, error) {
	raw, err := encodeToBinary(tiles, tileSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode to binary: %w", err)
	}

	compressed, err := gzipCompress(raw, DefaultGzipLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to compress with gzip: %w", err)
	}
	return compressed, nil
}

func encodeToBinary(tiles []terrain.Tile, tileSize float64) ([]byte, error) {
	if tileSize <= 0 || tileSize > math.MaxUint16 || tileSize != math.Trunc(tileSize) {
		return nil, fmt.Errorf("unsupported tile size %v", tileSize)
	}

	baseRow := int32(0)
	if len(tiles) > 0 {
		baseRow = math.MaxInt32
		for _, tile := range tiles {
			if row := int32(stripmap.TileIndex(tile.Y, tileSize)); row < baseRow {
				baseRow = row
			}
		}
	}

	var buf bytes.Buffer
	header := TileHeader{
		Version:  TileVersion,
		TileSize: uint16(tileSize),
		Count:    uint32(len(tiles)),
		BaseRow:  baseRow,
	}
	copy(header.Magic[:], TileMagic)
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, tile := range tiles {
		col := stripmap.TileIndex(tile.X, tileSize)
		row := stripmap.TileIndex(tile.Y, tileSize)
		if stripmap.TileOrigin(col, tileSize) != tile.X || stripmap.TileOrigin(row, tileSize) != tile.Y {
			return nil, fmt.Errorf("tile %d at (%v, %v): %w", i, tile.X, tile.Y, ErrUnaligned)
		}
		offset := int64(row) - int64(baseRow)
		if col < 0 || col > math.MaxUint16 || offset > math.MaxUint16 {
			return nil, fmt.Errorf("tile %d at (%v, %v) out of batch range", i, tile.X, tile.Y)
		}

		rec := tileRecord{
			Col:       uint16(col),
			RowOffset: uint16(offset),
			Category:  uint8(tile.Category),
			Variant:   tile.Variant,
		}
		if err := binary.Write(&buf, binary.LittleEndian, rec); err != nil {
			return nil, fmt.Errorf("failed to write tile %d: %w", i, err)
		}
	}

	return buf.Bytes(), nil
}

// DecodeTiles reverses EncodeTiles, returning the tiles and the tile size.
func DecodeTiles(data []byte) ([]terrain.Tile, float64, error) {
	raw, err := gzipDecompress(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	r := bytes.NewReader(raw)
	var header TileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, 0, fmt.Errorf("%w: header: %v", ErrInvalidFormat, err)
	}
	if string(header.Magic[:]) != TileMagic {
		return nil, 0, fmt.Errorf("%w: bad magic %q", ErrInvalidFormat, header.Magic[:])
	}
	if header.Version != TileVersion {
		return nil, 0, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, header.Version)
	}
	if header.TileSize == 0 {
		return nil, 0, fmt.Errorf("%w: zero tile size", ErrInvalidFormat)
	}

	const recordSize = 6
	if int64(header.Count)*recordSize != int64(r.Len()) {
		return nil, 0, fmt.Errorf("%w: expected %d tiles, have %d bytes", ErrInvalidFormat, header.Count, r.Len())
	}

	size := float64(header.TileSize)
	tiles := make([]terrain.Tile, header.Count)
	for i := range tiles {
		var rec tileRecord
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, 0, fmt.Errorf("%w: tile %d: %v", ErrInvalidFormat, i, err)
		}
		tiles[i] = terrain.Tile{
			X:        stripmap.TileOrigin(int(rec.Col), size),
			Y:        stripmap.TileOrigin(int(header.BaseRow)+int(rec.RowOffset), size),
			Category: terrain.Category(rec.Category),
			Variant:  rec.Variant,
		}
	}
	return tiles, size, nil
}

// gzipCompress compresses data using gzip
func gzipCompress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer

	writer, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write to gzip: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
