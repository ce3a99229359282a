package persist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"pkt.systems/pslog"

	"github.com/jquast/modem.xyz/schema"
)

// RunSnapshot captures the state of a capture run for persistence.
// Re-running the same batch skips banners that already completed.
type RunSnapshot struct {
	StartedAt time.Time              `json:"started_at"`
	Results   []schema.CaptureResult `json:"results"`
}

// Completed returns successful results keyed by banner name.
func (s RunSnapshot) Completed() map[string]schema.CaptureResult {
	done := make(map[string]schema.CaptureResult, len(s.Results))
	for _, result := range s.Results {
		if result.Failed {
			continue
		}
		done[result.Name] = result
	}
	return done
}

// Store persists run snapshots to disk.
type Store struct {
	dir string
	log pslog.Logger
}

// NewStore constructs a persistent store at the given directory.
func NewStore(dir string) (*Store, error) {
	return NewStoreWithLogger(dir, nil)
}

// NewStoreWithLogger constructs a persistent store with logging.
func NewStoreWithLogger(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", dir)
	}
	return &Store{dir: dir, log: logger}, nil
}

// Load reads a run snapshot from disk.
func (s *Store) Load(run string) (RunSnapshot, bool, error) {
	path := s.pathForRun(run)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("state load miss", "run", run)
			}
			return RunSnapshot{}, false, nil
		}
		if s.log != nil {
			s.log.Warn("state load failed", "run", run, "err", err)
		}
		return RunSnapshot{}, false, err
	}
	var snapshot RunSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		if s.log != nil {
			s.log.Warn("state load failed", "run", run, "err", err)
		}
		return RunSnapshot{}, false, err
	}
	if s.log != nil {
		s.log.Debug("state load ok", "run", run, "results", len(snapshot.Results))
	}
	return snapshot, true, nil
}

// Save writes a run snapshot to disk.
func (s *Store) Save(run string, snapshot RunSnapshot) error {
	path := s.pathForRun(run)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		if s.log != nil {
			s.log.Warn("state save failed", "run", run, "err", err)
		}
		return err
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		if s.log != nil {
			s.log.Warn("state save failed", "run", run, "err", err)
		}
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "state-*.json")
	if err != nil {
		if s.log != nil {
			s.log.Warn("state save failed", "run", run, "err", err)
		}
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("state save failed", "run", run, "err", err)
		}
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("state save failed", "run", run, "err", err)
		}
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("state save failed", "run", run, "err", err)
		}
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("state save failed", "run", run, "err", err)
		}
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		if s.log != nil {
			s.log.Warn("state save failed", "run", run, "err", err)
		}
		return err
	}
	if s.log != nil {
		s.log.Trace("state save ok", "run", run, "results", len(snapshot.Results))
	}
	return nil
}

func (s *Store) pathForRun(run string) string {
	name := sanitize(run)
	if name == "" {
		name = "default"
	}
	return filepath.Join(s.dir, name+".json")
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	return b.String()
}
