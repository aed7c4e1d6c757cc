package core

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// TaskHistory records the basenames a task has already transcoded, so a
// rerun does not redo finished work.
type TaskHistory struct {
	// Map basename -> time it was processed
	Entries map[string]time.Time `json:"entries"`
	mu      sync.RWMutex
}

type HistoryManager struct {
	// TaskName -> History
	Tasks map[string]*TaskHistory `json:"tasks"`
	Path  string
	mu    sync.RWMutex
}

func NewHistoryManager(path string) *HistoryManager {
	return &HistoryManager{
		Tasks: make(map[string]*TaskHistory),
		Path:  path,
	}
}

func (hm *HistoryManager) Load() error {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	data, err := os.ReadFile(hm.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &hm.Tasks)
}

func (hm *HistoryManager) Save() error {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	data, err := json.MarshalIndent(hm.Tasks, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(hm.Path, data, 0644)
}

func (hm *HistoryManager) TaskHistory(taskName string) *TaskHistory {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if _, ok := hm.Tasks[taskName]; !ok {
		hm.Tasks[taskName] = &TaskHistory{
			Entries: make(map[string]time.Time),
		}
	}
	return hm.Tasks[taskName]
}

func (th *TaskHistory) Add(basename string) {
	th.mu.Lock()
	defer th.mu.Unlock()
	th.Entries[basename] = time.Now()
}

func (th *TaskHistory) Has(basename string) bool {
	th.mu.RLock()
	defer th.mu.RUnlock()
	_, ok := th.Entries[basename]
	return ok
}

func (th *TaskHistory) ProcessedAt(basename string) (time.Time, bool) {
	th.mu.RLock()
	defer th.mu.RUnlock()
	t, ok := th.Entries[basename]
	return t, ok
}

// Snapshot copies the entries so callers can iterate without holding the
// lock.
func (th *TaskHistory) Snapshot() map[string]time.Time {
	th.mu.RLock()
	defer th.mu.RUnlock()
	entries := make(map[string]time.Time, len(th.Entries))
	for k, v := range th.Entries {
		entries[k] = v
	}
	return entries
}

func (th *TaskHistory) Remove(basename string) {
	th.mu.Lock()
	defer th.mu.Unlock()
	delete(th.Entries, basename)
}
