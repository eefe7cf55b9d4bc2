package ports

// SymbolImporter resolves symbols exported by host-runtime modules.
// It is consulted at call time, so a symbol may appear after process start.
type SymbolImporter interface {
	// Import returns the symbol exported by module under name.
	// It returns an error wrapping domain.ErrSymbolNotFound when either is unknown.
	Import(module, name string) (any, error)
}
