package transcript

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmalink/procure-cli/internal/model"
)

func sampleTranscript(ref string, at time.Time) model.Transcript {
	return model.Transcript{
		ConversationRef: ref,
		SupplierName:    "Pharma Depot",
		AgentKind:       model.AgentKindProducts,
		Timestamp:       at,
		Messages: []model.CallMessage{
			{Role: "agent", Text: "Hello, I am calling about your catalog."},
			{Role: "user", Text: "Paracetamol is now 12.50 per box."},
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := NewStore(t.TempDir())
	tr := sampleTranscript("conv_abc", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))

	require.NoError(t, s.Save(tr))

	got, err := s.Load("conv_abc")
	require.NoError(t, err)
	assert.Equal(t, tr.SupplierName, got.SupplierName)
	assert.Equal(t, tr.Messages, got.Messages)
	assert.Equal(t, 2, got.TotalMessages)
}

func TestSave_EmptyRefRejected(t *testing.T) {
	s := NewStore(t.TempDir())
	assert.Error(t, s.Save(model.Transcript{}))
}

func TestLoad_Missing(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.Load("conv_missing")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestList_NewestFirstSkippingCorrupt(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	older := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(sampleTranscript("conv_old", older)))
	require.NoError(t, s.Save(sampleTranscript("conv_new", older.Add(time.Hour))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "conv_broken.json"), []byte("{"), 0o644))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "conv_new", list[0].ConversationRef)
	assert.Equal(t, "conv_old", list[1].ConversationRef)
}

func TestList_MissingDirIsEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "never-created"))
	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTryMarkReconciled(t *testing.T) {
	s := NewStore(t.TempDir())
	assert.False(t, s.Reconciled("task-1"))
	assert.True(t, s.TryMarkReconciled("task-1"))
	assert.False(t, s.TryMarkReconciled("task-1"))
	assert.True(t, s.Reconciled("task-1"))
	assert.True(t, s.TryMarkReconciled("task-2"))
}

func TestFormatText(t *testing.T) {
	tr := sampleTranscript("conv_abc", time.Now())
	text := FormatText(tr)
	assert.Equal(t, "Agent: Hello, I am calling about your catalog.\nUser: Paracetamol is now 12.50 per box.\n", text)
}
