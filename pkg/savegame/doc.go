// Package savegame implements the generic chunked savegame container used by
// the script-config serializer: a versioned stream of tagged chunks, optional
// self-describing table headers, and sentinel-terminated arrays of
// length-prefixed records.
//
// Layout:
//
//	stream  = "SLSG" version:uint16 chunk* "\x00\x00\x00\x00"
//	chunk   = tag:[4]byte kind:byte header? element* uvarint(0)
//	header  = (kind:byte name:string)* 0x00
//	element = uvarint(len(body)+1) uvarint(index) body
//
// Table headers are only written and read for table chunks in streams at or
// above VersionTableChunks; older streams rely on the reader's own legacy
// field map. A record body must be consumed completely before the next
// element is iterated, which keeps every chunk handler honest about the
// stream cursor.
package savegame
