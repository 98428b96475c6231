// Package media holds source metadata shared by the downloader, the
// orchestrator and the HTTP surface. Subpackages wrap media tooling.
package media
