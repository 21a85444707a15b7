/*
Package session serializes access to dialogue sessions and persists them.

A dialogue engine must not be driven concurrently. Manager hands out one
lock per session ID, optionally backed by a ports.DistributedLocker so that
several replicas can share a snapshot store, and offers Resume and Persist
to move a session between an engine and the store.
*/
package session
