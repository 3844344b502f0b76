package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/MiguelAlmeida05/Ruta-Op/sim/markov"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/session"
)

// SessionFile is the on-disk form of a registry: session id -> chain snapshot.
type SessionFile struct {
	Sessions map[string]markov.Snapshot `yaml:"sessions"`
}

// LoadSessions imports every session in path into reg. A missing file is not an error.
func LoadSessions(path string, reg *session.Registry) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logrus.Infof("No session file at %s, starting fresh", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read sessions %s: %w", path, err)
	}
	var f SessionFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return fmt.Errorf("parse sessions %s: %w", path, err)
	}
	for id, snap := range f.Sessions {
		reg.Import(id, snap)
	}
	logrus.Infof("Imported %d sessions from %s", len(f.Sessions), path)
	return nil
}

// SaveSessions writes every live session in reg to path.
func SaveSessions(path string, reg *session.Registry) error {
	f := SessionFile{Sessions: make(map[string]markov.Snapshot, reg.Len())}
	for _, id := range reg.IDs() {
		if snap, ok := reg.Export(id); ok {
			f.Sessions[id] = snap
		}
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sessions %s: %w", path, err)
	}
	return nil
}

// openSession builds the registry for the master seed, loads file if given and returns
// the chain for id.
func openSession(file, id string) (*session.Registry, *markov.Chain) {
	reg := session.NewRegistry(cfg.Simulation.Seed)
	if file != "" {
		if err := LoadSessions(file, reg); err != nil {
			logrus.Fatalf("Failed to load sessions: %v", err)
		}
	}
	return reg, reg.GetOrCreate(id)
}

func closeSession(file string, reg *session.Registry) {
	if file == "" {
		return
	}
	if err := SaveSessions(file, reg); err != nil {
		logrus.Fatalf("Failed to save sessions: %v", err)
	}
}
