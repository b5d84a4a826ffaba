package atn

import (
	"embed"
	"io/fs"
)

//go:embed network.go lexer.go parser.go predict.go token.go tree.go wire.go
var runtimeFiles embed.FS

// RuntimeFiles returns the runtime sources copied next to generated programs.
func RuntimeFiles() fs.FS {
	return runtimeFiles
}
