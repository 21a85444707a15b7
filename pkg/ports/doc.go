/*
Package ports defines the driven ports (interfaces) for the Mortar runtime.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various program sources, snapshot stores and lock managers.

# Key Interfaces

  - ProgramLoader: Responsible for loading compiled programs (e.g., from Memory or the filesystem).
  - SnapshotStore: Responsible for persisting and loading session Snapshots.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
  - Dialogue: The navigation surface consumed by hosts and adapters.
*/
package ports
