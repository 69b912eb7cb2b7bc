package store

import (
	"encoding/binary"
)

// Declare database key prefix for objects
const (
	PrefixLeaf     = "leaf:"
	PrefixLeafView = "leaf_view:"

	PrefixBlock       = "blk:"
	PrefixPayloadHash = "blk_payload:"

	PrefixDispersal = "disp:"

	PrefixMeta            = "meta:"
	MetaKeyLeafHeight     = "leaf_height"
	MetaKeyBlockHeight    = "block_height"
	MetaKeyGenesisPresent = "genesis_present"
)

// heightKey converts a prefix and block height to a storage key. Heights
// are big-endian so lexicographic key order is height order.
func heightKey(prefix string, height uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], height)
	return key
}

func leafKey(height uint64) []byte {
	return heightKey(PrefixLeaf, height)
}

// leafViewKey indexes leaves by consensus view; the value is the height key
// suffix of the leaf decided in that view.
func leafViewKey(view uint64) []byte {
	return heightKey(PrefixLeafView, view)
}

func blockKey(height uint64) []byte {
	return heightKey(PrefixBlock, height)
}

// payloadHashKey indexes blocks by payload content hash.
func payloadHashKey(hash [32]byte) []byte {
	key := make([]byte, len(PrefixPayloadHash)+32)
	copy(key, PrefixPayloadHash)
	copy(key[len(PrefixPayloadHash):], hash[:])
	return key
}

func dispersalKey(height uint64) []byte {
	return heightKey(PrefixDispersal, height)
}

func metaKey(name string) []byte {
	return []byte(PrefixMeta + name)
}
