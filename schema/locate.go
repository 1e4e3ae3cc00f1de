package schema

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"sync"

	"github.com/wudi/nitfkit/observability"
)

// FileName is the conventional name of the schema document.
const FileName = "nitf_spec.xml"

// EnvSpecFile overrides the schema location.
const EnvSpecFile = "NITF_SPEC_FILE"

// EnvDataDir is searched for FileName when EnvSpecFile is unset.
const EnvDataDir = "GDAL_DATA"

//go:embed nitf_spec.xml
var embedded []byte

var embeddedSpec = sync.OnceValues(func() (*Spec, error) {
	return Parse(bytes.NewReader(embedded))
})

// Embedded returns the schema compiled into the binary.
func Embedded() (*Spec, error) {
	return embeddedSpec()
}

// Locate resolves the schema to use: path when set, then $NITF_SPEC_FILE,
// then $GDAL_DATA/nitf_spec.xml, then the embedded copy.
func Locate(path string, log observability.Logger) (*Spec, error) {
	log = observability.OrNop(log)
	if path == "" {
		path = os.Getenv(EnvSpecFile)
	}
	if path == "" {
		if dir := os.Getenv(EnvDataDir); dir != "" {
			candidate := filepath.Join(dir, FileName)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}
	if path == "" {
		log.Debug("using embedded schema", observability.String("file", FileName))
		return Embedded()
	}
	s, err := Load(path)
	if err != nil {
		log.Debug("invalid schema file", observability.String("path", path), observability.Error("err", err))
		return nil, err
	}
	return s, nil
}
