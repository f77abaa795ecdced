// Package token mints LiveKit access tokens for joining a room, the same
// tokens the web frontend hands to browsers.
package token
