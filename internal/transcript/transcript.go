// Package transcript persists supplier-call transcripts as JSON files and
// tracks which tasks already had their transcript reconciled, so replaying a
// completion signal never applies the same call twice.
package transcript

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pharmalink/procure-cli/internal/model"
)

// ErrNotFound marks a lookup for a conversation ref with no saved transcript.
var ErrNotFound = eris.New("transcript: not found")

// Store writes transcripts to a directory, one JSON file per conversation.
type Store struct {
	dir string

	mu         sync.Mutex
	reconciled map[string]bool
}

// NewStore creates a transcript store rooted at dir. The directory is created
// on the first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir, reconciled: make(map[string]bool)}
}

func (s *Store) path(conversationRef string) string {
	return filepath.Join(s.dir, conversationRef+".json")
}

// Save durably writes one transcript, named by its conversation ref. Saving
// the same ref again overwrites the previous file.
func (s *Store) Save(tr model.Transcript) error {
	if tr.ConversationRef == "" {
		return eris.New("transcript: empty conversation ref")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return eris.Wrap(err, "creating transcript dir")
	}

	tr.TotalMessages = len(tr.Messages)
	data, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encoding transcript")
	}

	tmp, err := os.CreateTemp(s.dir, ".transcript-*")
	if err != nil {
		return eris.Wrap(err, "creating temp transcript")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return eris.Wrap(err, "writing transcript")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrap(err, "closing transcript")
	}
	if err := os.Rename(tmp.Name(), s.path(tr.ConversationRef)); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrap(err, "renaming transcript")
	}

	zap.L().Info("transcript saved",
		zap.String("conversation_ref", tr.ConversationRef),
		zap.Int("messages", tr.TotalMessages),
	)
	return nil
}

// Load reads one transcript by conversation ref.
func (s *Store) Load(conversationRef string) (model.Transcript, error) {
	data, err := os.ReadFile(s.path(conversationRef))
	if err != nil {
		if os.IsNotExist(err) {
			return model.Transcript{}, eris.Wrapf(ErrNotFound, "%q", conversationRef)
		}
		return model.Transcript{}, eris.Wrapf(err, "reading transcript %q", conversationRef)
	}
	var tr model.Transcript
	if err := json.Unmarshal(data, &tr); err != nil {
		return model.Transcript{}, eris.Wrapf(err, "decoding transcript %q", conversationRef)
	}
	return tr, nil
}

// List loads every transcript in the store, newest first. Files that fail to
// decode are logged and skipped.
func (s *Store) List() ([]model.Transcript, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "reading transcript dir")
	}

	out := make([]model.Transcript, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		tr, err := s.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			zap.L().Warn("skipping unreadable transcript", zap.String("file", name), zap.Error(err))
			continue
		}
		out = append(out, tr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// TryMarkReconciled records that the given task's transcript was reconciled.
// It returns false when the task was already recorded, so exactly one caller
// wins per task.
func (s *Store) TryMarkReconciled(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reconciled[taskID] {
		return false
	}
	s.reconciled[taskID] = true
	return true
}

// Reconciled reports whether the given task's transcript was reconciled.
func (s *Store) Reconciled(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconciled[taskID]
}

// FormatText renders a transcript's messages as role-labelled lines for the
// extraction prompt.
func FormatText(tr model.Transcript) string {
	var b strings.Builder
	for _, m := range tr.Messages {
		label := "User"
		if m.Role == "agent" {
			label = "Agent"
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(m.Text)
		b.WriteString("\n")
	}
	return b.String()
}
