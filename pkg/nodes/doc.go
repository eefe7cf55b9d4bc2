// Package nodes provides the node types registered before any plugin:
// SaveImage, the terminal persistence node, and the literal primitives.
package nodes
