package gen

import (
	"github.com/syssam/sqlgen/internal/ir"
	"github.com/syssam/sqlgen/internal/sink"
)

// Result is the set of artifacts rendered from a Root.
type Result struct {
	Header   []byte
	Source   []byte
	Manifest []byte // nil unless Config.ManifestPath is set
}

// Generate renders root's declaration and implementation streams, and the
// manifest if cfg.ManifestPath is set.
func Generate(cfg *Config, root *ir.Root) (*Result, error) {
	res := &Result{
		Header: renderDeclaration(cfg, root),
		Source: renderImplementation(cfg, root),
	}
	if cfg.ManifestPath != "" {
		manifest, err := renderManifest("manifest", cfg, root)
		if err != nil {
			return nil, err
		}
		res.Manifest = manifest
	}
	return res, nil
}

// Files converts a Result into the sink.File list for the given header and
// source output paths.
func (r *Result) Files(headerPath, sourcePath, manifestPath string) []sink.File {
	files := []sink.File{
		{Path: headerPath, Data: r.Header},
		{Path: sourcePath, Data: r.Source},
	}
	if r.Manifest != nil {
		files = append(files, sink.File{Path: manifestPath, Data: r.Manifest})
	}
	return files
}
