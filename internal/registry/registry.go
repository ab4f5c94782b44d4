// Package registry maintains the index of discovered snippets and parsed
// fragments. It enforces the uniqueness of snippet names across the scanned
// tree and broadcasts change events to watchers such as the watch loop and
// the preview server.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/docstitch/docstitch/internal/errors"
	"github.com/docstitch/docstitch/internal/types"
)

// SnippetRegistry manages all discovered snippets and fragments.
type SnippetRegistry struct {
	snippets  map[string]*types.SnippetInfo
	fragments map[string]*types.FragmentInfo
	mutex     sync.RWMutex
	watchers  []chan types.SnippetEvent
}

// NewSnippetRegistry creates a new snippet registry.
func NewSnippetRegistry() *SnippetRegistry {
	return &SnippetRegistry{
		snippets:  make(map[string]*types.SnippetInfo),
		fragments: make(map[string]*types.FragmentInfo),
		watchers:  make([]chan types.SnippetEvent, 0),
	}
}

// RegisterSnippet adds or updates a snippet. A name already registered from
// a different file is rejected: snippet names are global to the playground.
func (r *SnippetRegistry) RegisterSnippet(snippet *types.SnippetInfo) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := types.EventTypeAdded
	if existing, exists := r.snippets[snippet.Name]; exists {
		if existing.FilePath != snippet.FilePath {
			return errors.ErrDuplicateSnippet(snippet.Name, existing.FilePath, snippet.FilePath)
		}
		if existing.Hash == snippet.Hash {
			// Unchanged rescan; keep watchers quiet.
			r.snippets[snippet.Name] = snippet
			return nil
		}
		eventType = types.EventTypeUpdated
	}

	r.snippets[snippet.Name] = snippet
	r.notify(types.SnippetEvent{
		Type:      eventType,
		Snippet:   snippet,
		Timestamp: time.Now(),
	})

	return nil
}

// GetSnippet retrieves a snippet by name.
func (r *SnippetRegistry) GetSnippet(name string) (*types.SnippetInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	snippet, exists := r.snippets[name]
	return snippet, exists
}

// AllSnippets returns all registered snippets sorted by name so callers
// produce deterministic output.
func (r *SnippetRegistry) AllSnippets() []*types.SnippetInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*types.SnippetInfo, 0, len(r.snippets))
	for _, snippet := range r.snippets {
		result = append(result, snippet)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result
}

// RemoveSnippet drops a single snippet by name, notifying watchers. Used by
// the scanner when a region disappears from a file that still exists.
func (r *SnippetRegistry) RemoveSnippet(name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	snippet, exists := r.snippets[name]
	if !exists {
		return
	}
	delete(r.snippets, name)
	r.notify(types.SnippetEvent{
		Type:      types.EventTypeRemoved,
		Snippet:   snippet,
		Timestamp: time.Now(),
	})
}

// RemoveFile removes every snippet that was extracted from the given file,
// used before rescanning a changed file and after a deletion.
func (r *SnippetRegistry) RemoveFile(filePath string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for name, snippet := range r.snippets {
		if snippet.FilePath != filePath {
			continue
		}
		delete(r.snippets, name)
		r.notify(types.SnippetEvent{
			Type:      types.EventTypeRemoved,
			Snippet:   snippet,
			Timestamp: time.Now(),
		})
	}
}

// SnippetCount returns the number of registered snippets.
func (r *SnippetRegistry) SnippetCount() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.snippets)
}

// RegisterFragment adds or updates a parsed fragment keyed by path.
func (r *SnippetRegistry) RegisterFragment(fragment *types.FragmentInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.fragments[fragment.Path] = fragment
}

// GetFragment retrieves a fragment by path.
func (r *SnippetRegistry) GetFragment(path string) (*types.FragmentInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	fragment, exists := r.fragments[path]
	return fragment, exists
}

// AllFragments returns all registered fragments sorted by path.
func (r *SnippetRegistry) AllFragments() []*types.FragmentInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*types.FragmentInfo, 0, len(r.fragments))
	for _, fragment := range r.fragments {
		result = append(result, fragment)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })

	return result
}

// Watch returns a channel that receives snippet events.
func (r *SnippetRegistry) Watch() <-chan types.SnippetEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan types.SnippetEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it.
func (r *SnippetRegistry) UnWatch(ch <-chan types.SnippetEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// notify delivers an event to every watcher without blocking. Callers must
// hold the mutex.
func (r *SnippetRegistry) notify(event types.SnippetEvent) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}
