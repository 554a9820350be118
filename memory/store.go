package memory

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Speaker identifies who authored a turn.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// MaxTurns bounds the stored history per conversation; oldest turns are
// evicted first once the bound is exceeded.
const MaxTurns = 20

// DefaultWindow is the number of recent turns sent to the completion API.
const DefaultWindow = 10

// Turn is one message exchange unit in a conversation.
type Turn struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Store holds bounded conversation histories keyed by conversation key and
// mirrors them to a JSON file. Safe for concurrent use by multiple front ends.
type Store struct {
	mu            sync.Mutex
	path          string
	conversations map[string][]Turn
}

// Load reads the store from path. A missing or malformed file yields an empty
// store rather than an error; the file is rewritten on the next mutation.
func Load(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("memory: empty store path")
	}
	s := &Store{path: path, conversations: make(map[string][]Turn)}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, errors.Wrapf(err, "memory: read %s", path)
	}
	if err := json.Unmarshal(b, &s.conversations); err != nil {
		// Corrupt history is recoverable: start over with an empty store.
		s.conversations = make(map[string][]Turn)
	}
	if s.conversations == nil {
		s.conversations = make(map[string][]Turn)
	}
	return s, nil
}

// Append records a turn under key, creating the conversation on first use,
// evicting the oldest turns above MaxTurns, and persisting the store.
func (s *Store) Append(key string, speaker Speaker, text string) error {
	if key == "" {
		return errors.New("memory: empty conversation key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.conversations[key], Turn{
		Speaker:   speaker,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
	if n := len(turns); n > MaxTurns {
		turns = turns[n-MaxTurns:]
	}
	s.conversations[key] = turns

	return s.save()
}

// Context returns the most recent min(n, available) turns for key in
// chronological order. Unknown keys yield an empty slice.
func (s *Store) Context(key string, n int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.conversations[key]
	if n <= 0 || len(turns) == 0 {
		return nil
	}
	if n > len(turns) {
		n = len(turns)
	}
	out := make([]Turn, n)
	copy(out, turns[len(turns)-n:])
	return out
}

// Len reports the number of stored turns for key.
func (s *Store) Len(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations[key])
}

// Clear removes all turns for key and persists the store. Clearing an unknown
// key is a no-op.
func (s *Store) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[key]; !ok {
		return nil
	}
	delete(s.conversations, key)
	return s.save()
}

// Flush rewrites the backing file from the in-memory state.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save rewrites the backing file; callers must hold s.mu.
func (s *Store) save() error {
	b, err := json.MarshalIndent(s.conversations, "", "  ")
	if err != nil {
		return errors.Wrap(err, "memory: marshal store")
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return errors.Wrapf(err, "memory: write %s", s.path)
	}
	return nil
}
