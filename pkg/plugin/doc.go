/*
Package plugin discovers node types and registers them before any workflow runs.

Plugin code may expect a scheduler, a server context and a request queue to
exist while it registers, so Loader builds that ExecContext first, installs the
loop in the context handed to discovery, and seals the registry afterwards.

Custom nodes live in directories under each custom_nodes root. A directory is a
plugin when it holds a nodes.yaml, nodes.yml or nodes.json manifest describing
process-backed node types. Directories ending in ".disabled" and hidden
directories are ignored.
*/
package plugin
