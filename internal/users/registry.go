// Package users keeps the set of people who opened the bot.
package users

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/coursebot/core/logger"
)

const maxFieldRunes = 128

// User is one registered identity. Name and Username keep their first-seen values.
type User struct {
	ID        int64
	Name      string
	Username  string
	Phone     string
	FirstSeen time.Time
}

// Journal persists registry changes before they are applied in memory.
type Journal interface {
	UpsertUser(ctx context.Context, u User) error
	SetPhone(ctx context.Context, u User) error
}

// Registry is an insertion-ordered set of users.
type Registry struct {
	mu      sync.RWMutex
	journal Journal
	byID    map[int64]*User
	order   []int64
	now     func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry(j Journal) *Registry {
	return &Registry{
		journal: j,
		byID:    make(map[int64]*User),
		now:     time.Now,
	}
}

// SetJournal attaches the journal after startup replay.
func (r *Registry) SetJournal(j Journal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.journal = j
}

// RecordVisit registers the user on first contact. Later visits change
// nothing. created reports whether the user was new.
func (r *Registry) RecordVisit(ctx context.Context, id int64, name, username string) (u User, created bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byID[id]; ok {
		return *existing, false, nil
	}
	nu := User{
		ID:        id,
		Name:      truncate(name),
		Username:  truncate(username),
		FirstSeen: r.now().UTC(),
	}
	if r.journal != nil {
		if err := r.journal.UpsertUser(ctx, nu); err != nil {
			return User{}, false, fmt.Errorf("users: persist visit: %w", err)
		}
	}
	r.insert(nu)
	logger.Info(ctx, "service.users", "user.registered",
		slog.String("status", "ok"),
		slog.Int64("user_id", id),
		slog.Int("count", len(r.order)),
	)
	return nu, true, nil
}

// RecordPhone stores the phone, creating the user when unseen.
func (r *Registry) RecordPhone(ctx context.Context, id int64, phone string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := User{ID: id, FirstSeen: r.now().UTC()}
	if existing, ok := r.byID[id]; ok {
		u = *existing
	}
	u.Phone = strings.TrimSpace(phone)
	if r.journal != nil {
		if err := r.journal.SetPhone(ctx, u); err != nil {
			return User{}, fmt.Errorf("users: persist phone: %w", err)
		}
	}
	if existing, ok := r.byID[id]; ok {
		existing.Phone = u.Phone
	} else {
		r.insert(u)
	}
	logger.Info(ctx, "service.users", "user.phone",
		slog.String("status", "ok"),
		slog.Int64("user_id", id),
	)
	return u, nil
}

// Restore loads a journaled user without writing it back.
func (r *Registry) Restore(u User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byID[u.ID]; ok {
		*existing = u
		return
	}
	r.insert(u)
}

// Get returns the user with the given id.
func (r *Registry) Get(id int64) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// Count returns the number of registered users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// IDs returns a snapshot of user ids in registration order.
func (r *Registry) IDs() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]int64(nil), r.order...)
}

// All returns a snapshot of all users in registration order.
func (r *Registry) All() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}

// Export renders every user as CSV: header user_id,name,username,phone,
// text fields always quoted.
func (r *Registry) Export() []byte {
	var b bytes.Buffer
	b.WriteString("user_id,name,username,phone\n")
	for _, u := range r.All() {
		b.WriteString(strconv.FormatInt(u.ID, 10))
		for _, f := range []string{u.Name, u.Username, u.Phone} {
			b.WriteByte(',')
			b.WriteString(quote(f))
		}
		b.WriteByte('\n')
	}
	return b.Bytes()
}

func (r *Registry) insert(u User) {
	cp := u
	r.byID[u.ID] = &cp
	r.order = append(r.order, u.ID)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= maxFieldRunes {
		return s
	}
	return string([]rune(s)[:maxFieldRunes])
}
