// Package manager owns the registry of engine instances, their lifecycle
// state machine, and the event bridge that forwards engine events to a
// caller-supplied sink. It is structured into small files by concern:
//
//   - manager.go: core Manager type (the instance registry), constructor, Create.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: identifiers, lifecycle State, InstanceConfig, observed properties.
//   - instance.go: Instance and its per-instance locking.
//   - control.go: option/property/command pass-through and surface attachment.
//   - sink.go: Sink interface and the ChannelSink/SinkFunc implementations.
//   - bridge.go: Message and the per-instance event loop.
//   - destroy.go: Destroy, Teardown futures, Close.
//   - errors.go: error types and helpers (IsNotFound, IsInvalidState, ...).
//   - events.go / eventpub_memory.go: lifecycle event publishing.
//   - metrics.go: Prometheus collectors.
//   - status_report.go: Status snapshot for /status.
//
// Threading model:
//
//   - The registry lock guards only the id → Instance map and is never held
//     across an engine call.
//   - Each Instance has an operation lock held for the duration of control
//     calls; teardown takes it before terminating the handle, so a control call
//     either completes against a live handle or observes the instance as gone.
//   - Each Instance has a delivery lock guarding {running, sink}. The bridge
//     checks and uses both under it, and sink replacement and teardown release
//     the sink under it, so a released sink is never invoked.
//
// External packages should use the exported Manager methods only.
package manager
