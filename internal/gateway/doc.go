// Package gateway implements the Fluxer realtime session: it dials the
// gateway, identifies (or resumes), keeps the connection alive with
// heartbeats and turns dispatch frames into domain events.
//
// Frames are processed one at a time on the goroutine running
// Session.Run. Cache mutation, event construction and listener dispatch
// for a frame all complete before the next frame is read.
package gateway
