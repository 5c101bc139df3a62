// Package narinfo resolves store path hashes to archive descriptors.
//
// A narinfo is a small line-oriented "Key: value" document published by the
// binary cache next to every NAR. Only the URL, Compression and NarSize keys
// are needed to fetch and unpack the archive; everything else is ignored.
//
// The cache answers a request for an unknown hash with status 403. The
// resolver treats that as "nothing to scan" rather than as an error.
package narinfo
