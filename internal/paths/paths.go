package paths

import (
	"os"
	"path/filepath"
)

const (
	AppDirName     = "cleartone"
	ConfigFileName = "cleartone-config.json"
	DBFileName     = "cleartone.db"
	LogFileName    = "cleartone.log"
	EnvDataDir     = "CLEARTONE_DATA_DIR"
	DirPerm        = 0755
	FilePerm       = 0644
)

// AtomicWrite writes data to path via a temporary file + rename to avoid
// partial writes. The parent directory is created if needed.
func AtomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, FilePerm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// DataDir returns the directory for the audit log and other state:
//   - $CLEARTONE_DATA_DIR if set
//   - Windows: %APPDATA%\cleartone
//   - Unix:    ~/.config/cleartone
//
// Falls back to os.TempDir()/cleartone if none is available.
func DataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, AppDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppDirName)
	}
	return filepath.Join(home, ".config", AppDirName)
}
