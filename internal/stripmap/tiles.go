package stripmap

import "math"

// DefaultTileSize is the edge length of one terrain tile in world units
const DefaultTileSize = 64.0

// TileIndex converts a world coordinate to its tile-grid index by dividing by
// the tile edge and truncating toward zero.
func TileIndex(coord, tileSize float64) int {
	return int(coord / tileSize)
}

// TileOrigin converts a tile-grid index back to its world coordinate
func TileOrigin(index int, tileSize float64) float64 {
	return float64(index) * tileSize
}

// TileRows returns the first and last tile rows whose origin lies inside the
// band [end, start). Rows never straddle two chunks because a row belongs to
// the chunk containing its origin. first > last means the band holds no row.
func TileRows(start, end, tileSize float64) (first, last int) {
	first = int(math.Ceil(end / tileSize))
	last = int(math.Ceil(start/tileSize)) - 1
	return first, last
}

// TilesAcross returns how many tile columns cover a band of the given width,
// with one extra column on each side so horizontal scrolling never exposes an edge.
func TilesAcross(width, tileSize float64) int {
	return int(math.Ceil(width/tileSize)) + 2
}
