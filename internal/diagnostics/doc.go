// Package diagnostics runs the deployment checklist: runtimes, credential
// files, dependencies, the frontend port, working directories and system
// memory. Every registered check runs exactly once, regardless of earlier
// failures, and the run passes only if all of them pass.
package diagnostics
