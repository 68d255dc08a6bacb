// Package sse is a minimal text/event-stream transport: a Reader that splits
// a stream into events, a Client that subscribes to per-session progress
// streams, and an Encoder for servers.
package sse
