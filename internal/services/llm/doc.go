// Package llm provides an OpenAI-compatible chat client (OpenRouter by
// default) and the transcript Translator built on it.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send system/user prompts, receive the text response.
// Client.HealthCheck: verify API key and model availability.
// NewTranslator: wrap a Client as a chunk translator.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions and
// network timeouts with exponential backoff (base 1s, max 10s). The attempt
// budget is configurable; the daemon builds the translation client with a
// single attempt so a failing chunk fails its job immediately. Context
// cancellation aborts retries.
package llm
