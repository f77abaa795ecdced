// Package creds keeps the frontend and backend credential files in step.
// Sync derives the backend file from the frontend one; Compare reports, key by
// key, whether both sides agree without ever printing a full secret.
package creds
