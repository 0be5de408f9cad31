// Package archive packs directories into compressed tarballs and unpacks them.
//
// Packing is deterministic: entries are written in lexical order with zeroed
// timestamps and ownership, so the same tree always yields the same bytes and
// therefore the same digest once stored. Unpack detects the compression from
// the stream header.
package archive
