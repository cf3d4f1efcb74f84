// Package services implements the core synchronisation logic: the rate
// limited batch fetcher, the per-account sync engine, the multi-account
// sync manager and the interval scheduler.
package services
