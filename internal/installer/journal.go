package installer

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kamusis/aipkg/internal/fsutil"
)

// Record is one install that has started but not yet been committed to
// the package database.
type Record struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Version   string    `yaml:"version"`
	Dir       string    `yaml:"dir"`
	Fresh     bool      `yaml:"fresh"`
	StartedAt time.Time `yaml:"started_at"`
}

// Journal is journal.yaml.
type Journal struct {
	Transactions []Record `yaml:"transactions"`
}

func loadJournal(path string) (*Journal, error) {
	j := &Journal{}
	if _, err := fsutil.ReadYAML(path, j); err != nil {
		return nil, fmt.Errorf("cannot read install journal: %w", err)
	}
	return j, nil
}

func (j *Journal) save(path string) error {
	if err := fsutil.WriteYAML(path, j); err != nil {
		return fmt.Errorf("cannot write install journal: %w", err)
	}
	return nil
}

func (in *Installer) begin(name, version, dir string, fresh bool) (string, error) {
	j, err := loadJournal(in.paths.JournalFile)
	if err != nil {
		return "", err
	}
	rec := Record{
		ID:        uuid.NewString(),
		Name:      name,
		Version:   version,
		Dir:       dir,
		Fresh:     fresh,
		StartedAt: in.now().UTC(),
	}
	j.Transactions = append(j.Transactions, rec)
	if err := j.save(in.paths.JournalFile); err != nil {
		return "", err
	}
	in.logger.Debug("install started", "txn", rec.ID, "name", name, "version", version)
	return rec.ID, nil
}

func (in *Installer) end(id string) error {
	j, err := loadJournal(in.paths.JournalFile)
	if err != nil {
		return err
	}
	kept := j.Transactions[:0]
	for _, r := range j.Transactions {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	j.Transactions = kept
	return j.save(in.paths.JournalFile)
}

// Pending returns the journal's unfinished transactions.
func (in *Installer) Pending() ([]Record, error) {
	j, err := loadJournal(in.paths.JournalFile)
	if err != nil {
		return nil, err
	}
	return j.Transactions, nil
}
