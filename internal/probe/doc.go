// Package probe checks that the configured voice services accept the
// operator's credentials. Each probe opens a single connection or issues one
// authenticated GET; none of them speaks the services' protocols.
package probe
