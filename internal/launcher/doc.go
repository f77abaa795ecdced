// Package launcher starts the voice agent backend and its dependency
// installer in a child process whose environment lacks the certificate
// overrides that break the agent's TLS stack. The parent environment is never
// modified.
package launcher
