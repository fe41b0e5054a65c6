package packgroup

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/smap/smap/internal/smaperr"
)

// ManifestFile is the name of a group's persisted enabled-pack order.
const ManifestFile = "packs.toml"

type packEntry struct {
	Path     string `toml:"path"`
	External bool   `toml:"external"`
}

type packsFile struct {
	Pack []packEntry `toml:"pack"`
}

func manifestPath(rootDir string) string {
	return filepath.Join(rootDir, ManifestFile)
}

// loadManifest reads packs.toml from rootDir, returning nil (not an error)
// if it doesn't exist yet.
func loadManifest(rootDir string) ([]packEntry, error) {
	path := manifestPath(rootDir)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, smaperr.NewIoError(smaperr.StepReadGroupManifest, err)
	}

	var pf packsFile
	if _, err := toml.DecodeFile(path, &pf); err != nil {
		return nil, smaperr.NewIoError(smaperr.StepReadGroupManifest, err)
	}
	return pf.Pack, nil
}

// saveManifest writes entries to packs.toml in rootDir, in order (order in
// file is precedence order, first wins).
func saveManifest(rootDir string, entries []packEntry) error {
	f, err := os.Create(manifestPath(rootDir))
	if err != nil {
		return smaperr.NewIoError(smaperr.StepWriteGroupManifest, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(packsFile{Pack: entries}); err != nil {
		return smaperr.NewIoError(smaperr.StepWriteGroupManifest, err)
	}
	return nil
}
