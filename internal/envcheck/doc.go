// Package envcheck validates the voice agent's credentials and endpoints. It
// collects every missing, placeholder and malformed key in a single Report so
// operators can fix all of them in one pass.
package envcheck
