package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed all:assets
var assetsFS embed.FS

// GetFileSystem returns an http.FileSystem rooted at the embedded assets directory.
func GetFileSystem() http.FileSystem {
	fsys, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic(err)
	}
	return http.FS(fsys)
}

// Has reports whether the named asset exists.
func Has(name string) bool {
	_, err := fs.Stat(assetsFS, "assets/"+name)
	return err == nil
}
