// Package gputrack coordinates the lifecycle of GPU-resident video tracks
// with a native WebRTC pipeline.
//
// A VideoTrack keeps three things in lockstep: a managed wrapper object, an
// opaque native track handle, and the GPU texture resources the native
// pipeline reads from or decodes into. Construction registers the wrapper in
// a process-wide handle registry so native callbacks can resolve back to it;
// Close tears native resources, GPU resources, and registry entries down in
// a fixed order, exactly once.
//
// # Architecture
//
//	Send:    application texture -> flip blit -> destination texture -> native encoder
//	Receive: native decoder -> renderer sink -> decode texture -> flip blit -> destination texture
//	Egress:  native encoder output -> LocalTrack (pion TrackLocal) -> RTP
//
// # Backends
//
// Two Context implementations are selected at build time:
//   - Full native backend (darwin/linux): purego bindings over the
//     libgputrack_webrtc shim. Set GPUTRACK_WEBRTC_LIB_PATH to the directory
//     containing the shim library.
//   - Constrained backend (js/wasm): syscall/js calls into the browser-side
//     bridge object. No renderer sinks; decoded remote tracks are backed by
//     externally managed texture handles.
//
// Tests inject their own Context; no native library is required to run them.
//
// # Threading
//
// The package is driven by the host's render loop: SyncFrame is expected to
// be called once per rendered frame from the thread that owns the GPU
// context. Lifecycle and sync operations must not race; the collections are
// mutex-guarded, but disposal races are the caller's responsibility to
// avoid.
package gputrack
