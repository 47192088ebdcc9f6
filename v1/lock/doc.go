// Package lock exposes the distributed-lock service's exclusive-lock HTTP
// API as typed method calls. Lock arbitration lives entirely server-side;
// the client issues acquisition attempts and, when a resource is busy,
// polls cooperatively within a caller-chosen wait budget. Every lock
// carries a lifetime so a crashed client cannot leak it forever.
package lock
