package repo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/answerdesk/answerdesk/internal/model"
	errs "github.com/answerdesk/answerdesk/internal/pkg/errors"
)

// ListFilter narrows List output. Zero values match everything.
type ListFilter struct {
	Type     string
	UserID   string
	SiteID   string
	Tags     []string
	DateFrom string
	DateTo   string
}

// TicketRepo is an append-mostly JSON file holding interaction logs and
// support tickets. A single mutex guards the whole file: write volume is
// one entry per answered question, far below any contention point.
type TicketRepo struct {
	mu   sync.Mutex
	path string
}

func NewTicketRepo(path string) *TicketRepo {
	return &TicketRepo{path: path}
}

// AppendLog stores one answered interaction and returns it with its
// generated id and timestamp filled in.
func (r *TicketRepo) AppendLog(entry model.Ticket) (model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, err := r.load()
	if err != nil {
		return model.Ticket{}, err
	}
	entry.Type = model.EntryTypeLog
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	entries = append(entries, entry)
	if err := r.save(entries); err != nil {
		return model.Ticket{}, err
	}
	return entry, nil
}

// CreateTicket stores a user-created support ticket, assigning the next
// sequential ticket number.
func (r *TicketRepo) CreateTicket(entry model.Ticket) (model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, err := r.load()
	if err != nil {
		return model.Ticket{}, err
	}
	entry.Type = model.EntryTypeTicket
	entry.ID = uuid.NewString()
	entry.TicketNumber = nextTicketNumber(entries)
	entry.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	entries = append(entries, entry)
	if err := r.save(entries); err != nil {
		return model.Ticket{}, err
	}
	return entry, nil
}

// SetFeedback records user feedback on an interaction log entry.
func (r *TicketRepo) SetFeedback(id, feedback string, rating *int) (model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, err := r.load()
	if err != nil {
		return model.Ticket{}, err
	}
	for i := range entries {
		if entries[i].ID != id {
			continue
		}
		entries[i].Feedback = feedback
		entries[i].Rating = rating
		entries[i].FeedbackAt = time.Now().UTC().Format(time.RFC3339)
		if err := r.save(entries); err != nil {
			return model.Ticket{}, err
		}
		return entries[i], nil
	}
	return model.Ticket{}, fmt.Errorf("%w: entry %s", errs.ErrNotFound, id)
}

func (r *TicketRepo) Get(id string) (model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, err := r.load()
	if err != nil {
		return model.Ticket{}, err
	}
	for _, entry := range entries {
		if entry.ID == id || entry.TicketNumber == id {
			return entry, nil
		}
	}
	return model.Ticket{}, fmt.Errorf("%w: entry %s", errs.ErrNotFound, id)
}

// List returns matching entries, newest first.
func (r *TicketRepo) List(filter ListFilter) ([]model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, err := r.load()
	if err != nil {
		return nil, err
	}
	matched := make([]model.Ticket, 0, len(entries))
	for _, entry := range entries {
		if filter.matches(entry) {
			matched = append(matched, entry)
		}
	}
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	return matched, nil
}

func (f ListFilter) matches(entry model.Ticket) bool {
	if f.Type != "" && entry.Type != f.Type {
		return false
	}
	if f.UserID != "" && entry.UserID != f.UserID {
		return false
	}
	if f.SiteID != "" && entry.SiteID != f.SiteID {
		return false
	}
	if f.DateFrom != "" && entry.CreatedAt < f.DateFrom {
		return false
	}
	if f.DateTo != "" && entry.CreatedAt > f.DateTo {
		return false
	}
	for _, want := range f.Tags {
		found := false
		for _, tag := range entry.Tags {
			if strings.EqualFold(tag, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func nextTicketNumber(entries []model.Ticket) string {
	max := 0
	for _, entry := range entries {
		var n int
		if _, err := fmt.Sscanf(entry.TicketNumber, "TKT-%04d", &n); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("TKT-%04d", max+1)
}

func (r *TicketRepo) load() ([]model.Ticket, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ticket store: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []model.Ticket
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode ticket store: %w", err)
	}
	return entries, nil
}

// save writes via a temp file and rename so a crash mid-write never
// truncates the store.
func (r *TicketRepo) save(entries []model.Ticket) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ticket store: %w", err)
	}
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ticket store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tickets-*.json")
	if err != nil {
		return fmt.Errorf("write ticket store: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write ticket store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write ticket store: %w", err)
	}
	return os.Rename(tmp.Name(), r.path)
}
