// Package driving defines the interfaces the core exposes to callers:
// the multi-account sync manager and its status/progress types.
package driving
