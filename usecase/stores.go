package usecase

import (
	"context"

	"skilltracker/model"
)

// UserStore is satisfied by repository.UserRepo and repository.MemoryUserRepo.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Update(ctx context.Context, id string, upd model.UserUpdate) (*model.User, error)
	Delete(ctx context.Context, id string) error
}

// NoteStore is satisfied by repository.NotesRepo and repository.MemoryNotesRepo.
type NoteStore interface {
	Insert(ctx context.Context, note *model.Note) error
	FindByID(ctx context.Context, id string) (*model.Note, error)
	List(ctx context.Context, opts model.ListOptions) ([]*model.Note, error)
	Delete(ctx context.Context, id string) error
}

// ListCache holds the unpaged note listing. Get reports a miss with
// services.ErrCacheMiss and the generation to pass to Set; Invalidate moves
// to a new generation so Sets carrying an older one are never served.
type ListCache interface {
	Get(ctx context.Context) ([]*model.Note, int64, error)
	Set(ctx context.Context, gen int64, notes []*model.Note) error
	Invalidate(ctx context.Context) error
}
