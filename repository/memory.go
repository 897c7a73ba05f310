package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"skilltracker/apperrors"
	"skilltracker/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryUserRepo is a process-local stand-in for UserRepo.
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]model.User
	order []primitive.ObjectID
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[primitive.ObjectID]model.User)}
}

func (r *MemoryUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTakenLocked(user.Email, primitive.NilObjectID) {
		return fmt.Errorf("email %q: %w", user.Email, apperrors.Conflict)
	}

	user.ID = primitive.NewObjectID()
	r.users[user.ID] = *user
	r.order = append(r.order, user.ID)
	return nil
}

func (r *MemoryUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if u := r.users[id]; u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email %q: %w", email, apperrors.NotFound)
}

func (r *MemoryUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	oid, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[oid]
	if !ok {
		return nil, notFound("user", id)
	}
	return &u, nil
}

func (r *MemoryUserRepo) List(_ context.Context) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*model.User, 0, len(r.order))
	for _, id := range r.order {
		u := r.users[id]
		users = append(users, &u)
	}
	return users, nil
}

func (r *MemoryUserRepo) Update(_ context.Context, id string, upd model.UserUpdate) (*model.User, error) {
	oid, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[oid]
	if !ok {
		return nil, notFound("user", id)
	}
	if upd.Email != nil && r.emailTakenLocked(*upd.Email, oid) {
		return nil, fmt.Errorf("email %q: %w", *upd.Email, apperrors.Conflict)
	}

	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[oid] = u
	return &u, nil
}

func (r *MemoryUserRepo) Delete(_ context.Context, id string) error {
	oid, err := parseID(id, "user")
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[oid]; !ok {
		return notFound("user", id)
	}
	delete(r.users, oid)
	for i, o := range r.order {
		if o == oid {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryUserRepo) emailTakenLocked(email string, except primitive.ObjectID) bool {
	for id, u := range r.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

// MemoryNotesRepo keeps note records in a map guarded by a RWMutex.
type MemoryNotesRepo struct {
	mu    sync.RWMutex
	notes map[primitive.ObjectID]model.Note
	seq   map[primitive.ObjectID]int
	next  int

	// FailInsert, when set, is returned by Insert. Tests use it to drive
	// the upload rollback path.
	FailInsert error
}

func NewMemoryNotesRepo() *MemoryNotesRepo {
	return &MemoryNotesRepo{
		notes: make(map[primitive.ObjectID]model.Note),
		seq:   make(map[primitive.ObjectID]int),
	}
}

func (r *MemoryNotesRepo) Insert(_ context.Context, note *model.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailInsert != nil {
		return dbError(r.FailInsert, "failed to insert note")
	}
	for _, n := range r.notes {
		if n.StoredName == note.StoredName {
			return dbError(fmt.Errorf("duplicate stored name %q", note.StoredName), "failed to insert note")
		}
	}

	note.ID = primitive.NewObjectID()
	r.notes[note.ID] = *note
	r.seq[note.ID] = r.next
	r.next++
	return nil
}

func (r *MemoryNotesRepo) FindByID(_ context.Context, id string) (*model.Note, error) {
	oid, err := parseID(id, "note")
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notes[oid]
	if !ok {
		return nil, notFound("note", id)
	}
	return &n, nil
}

func (r *MemoryNotesRepo) List(_ context.Context, opts model.ListOptions) ([]*model.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notes := make([]*model.Note, 0, len(r.notes))
	for _, n := range r.notes {
		n := n
		notes = append(notes, &n)
	}
	sort.Slice(notes, func(i, j int) bool {
		if !notes[i].UploadedAt.Equal(notes[j].UploadedAt) {
			return notes[i].UploadedAt.After(notes[j].UploadedAt)
		}
		return r.seq[notes[i].ID] > r.seq[notes[j].ID]
	})

	if opts.Skip > 0 {
		if opts.Skip >= int64(len(notes)) {
			return []*model.Note{}, nil
		}
		notes = notes[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < int64(len(notes)) {
		notes = notes[:opts.Limit]
	}
	return notes, nil
}

func (r *MemoryNotesRepo) Delete(_ context.Context, id string) error {
	oid, err := parseID(id, "note")
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notes[oid]; !ok {
		return notFound("note", id)
	}
	delete(r.notes, oid)
	delete(r.seq, oid)
	return nil
}
