package ir

// Version constants for the IR schema and compiler.
const (
	// IRVersion is the production IR schema version.
	IRVersion = "1"

	// CompilerVersion is the omnikeys compiler version.
	CompilerVersion = "0.1.0"
)
