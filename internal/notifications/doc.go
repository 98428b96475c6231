// Package notifications delivers terminal job events to operators and
// downstream consumers.
//
// NewService inspects configuration and returns an ntfy publisher, an AMQP
// publisher, a fan-out over both, or a no-op implementation so callers never
// need nil checks. Publishing is best-effort: the workflow logs failures and
// never lets them change a job's outcome.
package notifications
