// Package fsm implements the camera file copy workflow. Each file runs through
// ledger lookup, download, optional archive upload and completion on top of
// the superfly/fsm library.
package fsm

import (
	"context"
	"sync"

	"github.com/eoscam/eoscam/pkg/errors"
	"github.com/superfly/fsm"
)

// Register registers the copy FSM
func (m *Machine) Register(ctx context.Context, manager *fsm.Manager) (fsm.Start[CopyRequest, CopyResponse], fsm.Resume, error) {
	start, resume, err := fsm.Register[CopyRequest, CopyResponse](manager, "camera-copy").
		Start(StateCheckLedger, m.handleCheckLedger).
		To(StateDownload, m.handleDownload).
		To(StateArchive, m.handleArchive).
		To(StateComplete, m.handleComplete).
		End(StateFailed).
		Build(ctx)

	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to register FSM")
	}

	return start, resume, nil
}

// Sources maps source keys to the camera files they name. Camera handles
// cannot be persisted with a request, so the caller registers each file
// before starting its run.
type Sources struct {
	mu    sync.Mutex
	files map[string]File
}

// NewSources creates an empty source table
func NewSources() *Sources {
	return &Sources{files: make(map[string]File)}
}

// Add registers file under key
func (s *Sources) Add(key string, file File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = file
}

// Remove drops key
func (s *Sources) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
}

// Get returns the file registered under key
func (s *Sources) Get(key string) (File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[key]
	return f, ok
}
