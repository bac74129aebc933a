package public

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var static embed.FS

// StaticFS exposes the embedded stylesheet, scripts and images rooted at static/.
func StaticFS() (fs.FS, error) {
	return fs.Sub(static, "static")
}
