package artifact

import (
	"crypto"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	// Ensure SHA512 is available for fingerprint calculation.
	_ "crypto/sha512"
)

const (
	// DefaultChecksumFunction is used to fingerprint jar contents.
	// Fingerprints are compared for equality only; they do not verify
	// the artifact against a trusted source.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// DefaultFileMode is applied to a freshly installed jar.
	DefaultFileMode os.FileMode = 0o644

	// stagedPattern names staging files created next to the installed jar.
	stagedPattern = ".paper-staged-*.jar"
)

var errHashUnavailable = errors.New("hash function unavailable")

// Store manages the three jar slots of a server installation:
// installed, staged and previous-backup. Staging files are created in
// the installed jar's directory so promotion never crosses filesystems.
type Store struct {
	installPath string
	backupPath  string
}

// NewStore creates a Store over the given installed and backup slots.
func NewStore(installPath, backupPath string) *Store {
	return &Store{
		installPath: filepath.Clean(installPath),
		backupPath:  filepath.Clean(backupPath),
	}
}

// InstallPath returns the installed jar slot.
func (s *Store) InstallPath() string {
	return s.installPath
}

// BackupPath returns the previous-backup jar slot.
func (s *Store) BackupPath() string {
	return s.backupPath
}

// Stage creates an empty staging file beside the installed jar and
// returns its path. The caller owns the file.
func (s *Store) Stage() (string, error) {
	staged, err := os.CreateTemp(filepath.Dir(s.installPath), stagedPattern)
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}

	if err = staged.Close(); err != nil {
		return "", err
	}

	return staged.Name(), nil
}

// DiscardStaged removes a staging file. A missing file is not an error;
// the slot is transient and must never survive a finished run.
func (s *Store) DiscardStaged(path string) error {
	if path == "" {
		return nil
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

// InstalledFingerprint returns the fingerprint of the installed jar,
// or nil when no jar is installed yet.
func (s *Store) InstalledFingerprint() ([]byte, error) {
	if _, err := os.Stat(s.installPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	return Fingerprint(s.installPath)
}

// Promote replaces the installed jar with the staged one, retaining the
// displaced jar at the backup slot. The checksum of the staged contents
// is verified before any slot is touched. The staged file is consumed.
//
// When no jar is installed yet, the staged file is renamed into place
// directly and no backup is written.
func (s *Store) Promote(stagedPath string, checksum []byte) error {
	if _, err := os.Stat(s.installPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}

		return s.bootstrap(stagedPath)
	}

	staged, err := os.Open(filepath.Clean(stagedPath))
	if err != nil {
		return err
	}

	options := goupdate.Options{
		TargetPath:  s.installPath,
		TargetMode:  DefaultFileMode,
		Checksum:    checksum,
		Hash:        DefaultChecksumFunction,
		OldSavePath: s.backupPath,
	}

	if err = goupdate.Apply(staged, options); err != nil {
		_ = staged.Close()

		return fmt.Errorf("apply update: %w", err)
	}

	if err = staged.Close(); err != nil {
		return err
	}

	return s.DiscardStaged(stagedPath)
}

// bootstrap installs the very first jar: plain rename, nothing to back up.
func (s *Store) bootstrap(stagedPath string) error {
	if err := os.Rename(stagedPath, s.installPath); err != nil {
		return fmt.Errorf("install first jar: %w", err)
	}

	return os.Chmod(s.installPath, DefaultFileMode)
}

// Fingerprint returns checksum bytes for a file using DefaultChecksumFunction.
func Fingerprint(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("fingerprint calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate fingerprint: %w", err)
	}

	return hasher.Sum(nil), nil
}
