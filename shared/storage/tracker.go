package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ScreenedTracker remembers which creator videos were screened recently so a
// scheduled run does not screen them again inside the skip window.
type ScreenedTracker struct {
	filePath string
	screened map[string]time.Time
	mu       sync.RWMutex
	maxAge   time.Duration
	now      func() time.Time
}

type trackedVideo struct {
	Handle     string    `json:"handle"`
	VideoID    string    `json:"video_id"`
	ScreenedAt time.Time `json:"screened_at"`
}

func trackerKey(handle, videoID string) string {
	return handle + "/" + videoID
}

func NewScreenedTracker(dataDir string, maxAge time.Duration) (*ScreenedTracker, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tracker := &ScreenedTracker{
		filePath: filepath.Join(dataDir, "screened_videos.json"),
		screened: make(map[string]time.Time),
		maxAge:   maxAge,
		now:      time.Now,
	}
	if err := tracker.load(); err != nil {
		return nil, fmt.Errorf("failed to load screened tracker data: %w", err)
	}
	tracker.prune()
	return tracker, nil
}

// IsScreened reports whether the video was screened inside the skip window.
func (st *ScreenedTracker) IsScreened(handle, videoID string) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()

	at, ok := st.screened[trackerKey(handle, videoID)]
	return ok && st.now().Sub(at) < st.maxAge
}

// MarkScreened records a batch of videos of one creator.
func (st *ScreenedTracker) MarkScreened(handle string, videoIDs ...string) error {
	if len(videoIDs) == 0 {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	for _, id := range videoIDs {
		st.screened[trackerKey(handle, id)] = now
	}
	return st.save()
}

func (st *ScreenedTracker) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.screened)
}

func (st *ScreenedTracker) prune() {
	cutoff := st.now().Add(-st.maxAge)
	for key, at := range st.screened {
		if at.Before(cutoff) {
			delete(st.screened, key)
		}
	}
}

func (st *ScreenedTracker) load() error {
	data, err := os.ReadFile(st.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read tracker file: %w", err)
	}

	var tracked []trackedVideo
	if err := json.Unmarshal(data, &tracked); err != nil {
		return fmt.Errorf("failed to decode tracker data: %w", err)
	}
	for _, tv := range tracked {
		st.screened[trackerKey(tv.Handle, tv.VideoID)] = tv.ScreenedAt
	}
	return nil
}

// save replaces the file through a rename.
func (st *ScreenedTracker) save() error {
	st.prune()
	tracked := make([]trackedVideo, 0, len(st.screened))
	for key, at := range st.screened {
		handle, videoID := splitKey(key)
		tracked = append(tracked, trackedVideo{Handle: handle, VideoID: videoID, ScreenedAt: at})
	}

	data, err := json.MarshalIndent(tracked, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tracker data: %w", err)
	}
	tmp := st.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write tracker file: %w", err)
	}
	if err := os.Rename(tmp, st.filePath); err != nil {
		return fmt.Errorf("failed to replace tracker file: %w", err)
	}
	return nil
}

func splitKey(key string) (string, string) {
	i := strings.LastIndex(key, "/")
	return key[:i], key[i+1:]
}
