// Package transcriptcache persists source transcripts in SQLite so repeated
// jobs for the same source and duration cap skip subtitle extraction.
//
// Entries are keyed by (source_ref, max_seconds). Only transcripts produced by
// a real transcription are stored; fallback text never reaches the cache.
// Writes retry briefly when SQLite reports the database as busy.
package transcriptcache
