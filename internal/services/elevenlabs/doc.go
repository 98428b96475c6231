// Package elevenlabs talks to the ElevenLabs REST API for instant voice
// cloning and text-to-speech.
//
// Client.Clone uploads a WAV sample to /voices/add and returns the new voice
// id; Client.Delete removes it again. Client.Synthesize renders one text chunk
// and returns the MP3 bytes plus the response's request id so callers can pass
// recent ids back as previous_request_ids for prosody continuity across
// chunks. The client performs a single attempt per call; retry policy belongs
// to the caller.
package elevenlabs
