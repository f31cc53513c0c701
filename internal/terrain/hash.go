package terrain

// hash32 mixes a 32-bit input into a well-distributed 32-bit output
// (murmur3 finalizer constants). Stable across versions: no use of rand.
func hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

// hash2 returns a stable hash for a tile-grid coordinate.
func hash2(salt uint32, tx, ty int32) uint32 {
	h := salt
	h ^= uint32(tx) * 0x9e3779b1
	h ^= uint32(ty) * 0x85ebca6b
	return hash32(h)
}
