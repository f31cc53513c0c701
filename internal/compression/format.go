package compression

import (
	"encoding/base64"
	"fmt"

	"github.com/nightwalk/server/internal/terrain"
)

// CompressedTiles is a tile batch ready for JSON transmission
type CompressedTiles struct {
	Format           string `json:"format"`            // "binary_gzip"
	Count            int    `json:"count"`             // Number of tiles
	Data             string `json:"data"`              // Base64-encoded compressed data
	Size             int    `json:"size"`              // Compressed size in bytes
	UncompressedSize int    `json:"uncompressed_size"` // Size of the tiles as JSON, for comparison
}

// FormatTileBatch encodes tiles and wraps them for transmission.
func FormatTileBatch(tiles []terrain.Tile, tileSize float64) (*CompressedTiles, error) {
	compressed, err := EncodeTiles(tiles, tileSize)
	if err != nil {
		return nil, err
	}
	return &CompressedTiles{
		Format:           "binary_gzip",
		Count:            len(tiles),
		Data:             base64.StdEncoding.EncodeToString(compressed),
		Size:             len(compressed),
		UncompressedSize: EstimateJSONSize(tiles),
	}, nil
}

// ParseTileBatch decodes a batch produced by FormatTileBatch.
func ParseTileBatch(batch *CompressedTiles) ([]terrain.Tile, error) {
	if batch == nil {
		return nil, fmt.Errorf("%w: nil batch", ErrInvalidFormat)
	}
	if batch.Format != "binary_gzip" {
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidFormat, batch.Format)
	}
	data, err := base64.StdEncoding.DecodeString(batch.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	tiles, _, err := DecodeTiles(data)
	return tiles, err
}

// EstimateJSONSize estimates the size of tiles sent as plain JSON objects.
func EstimateJSONSize(tiles []terrain.Tile) int {
	// {"x":1216,"y":-1024,"category":"dead_grass","variant":255},
	const perTile = 60
	return len(tiles) * perTile
}
