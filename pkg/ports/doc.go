/*
Package ports defines the driven ports (interfaces) of the nodeflow driver.

These interfaces decouple the runner from the storage backends and the host
runtime it is embedded in.

# Key Interfaces

  - SymbolImporter: resolves a named symbol exported by a host-runtime module.
  - RunStore: persists RunRecords (memory, file or Redis).
  - ArtifactStore: persists final artifacts under a filename prefix (memory, file or S3).
  - DistributedLocker: serialises runs that share an accelerator across processes.
*/
package ports
