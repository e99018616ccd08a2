// Package camerakit provides a unified abstraction over heterogeneous
// camera backends: file replay, synthetic generation, IP cameras over
// HTTP, and vendor SDK devices behind a single contract.
//
// # Philosophy: One Contract, Many Devices
//
// Application code never depends on what a camera physically is. Every
// backend sits behind the same lifecycle, the same property model, and
// the same frame delivery semantics:
//
//   - Lifecycle: Uninitialized -> Initialized -> Open <-> Closed, with
//     explicit errors for out-of-order calls
//   - Parameters: one configuration document per system, one entry per
//     camera index, every field resolving to a literal, AUTO, or DEFAULT
//   - Properties: validated set/get with range checks, AUTO support
//     flags, and documented clamping
//   - Frames: buffered delivery with latest/next-unread selection and
//     explicit drop reporting when the producer outruns the consumer
//
// Camerakit MUST NOT contain:
//   - Image processing (analysis belongs to consumers of Frame data)
//   - Hardware probing or automatic backend selection
//   - Vendor SDK bindings (cgo drivers live in separate modules)
//
// # Package Layout
//
//   - camera: the unifying Camera type, Driver contract, factory
//     registry, and reference-counted handles
//   - config: configuration documents, parameter resolution, and the
//     AUTO/DEFAULT setting model
//   - errors: the classified error taxonomy shared by every layer
//   - events: lifecycle and acquisition events over slog and NATS
//   - health: fleet health monitoring and the probe endpoint
//   - metric: Prometheus registration for cameras and frame rings
//   - backend/replay, backend/sim, backend/axis: the in-tree backends
//   - backendregistry: registration of the in-tree backends
//   - pkg/framebuf: the bounded frame ring behind acquisition
//   - pkg/retry: backoff for device opens and network connects
//   - cmd/camkit: the command line tool
//
// # Basic Usage
//
//	if err := backendregistry.RegisterDefault(); err != nil {
//		log.Fatal(err)
//	}
//
//	handle, err := camera.NewVirtualCamera()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer handle.Release()
//
//	cam := handle.Camera()
//	if err := cam.Init("cameras.json", 0); err != nil {
//		log.Fatal(err)
//	}
//	if err := cam.Open(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	frame, err := cam.GetFrame(ctx, false)
package camerakit
