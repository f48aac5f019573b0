package room

import (
	"context"
	"slices"

	"github.com/victornm/teamquiz/internal/domain"
	"github.com/victornm/teamquiz/internal/lock"
	"github.com/victornm/teamquiz/internal/store"
)

// repository maps the rooms collection to single-room operations. Every write holds the
// collection lock for the whole read-modify-write, so updates to different rooms never
// overwrite each other. Lock order: room key first, collection key second.
type repository struct {
	store store.Store
	locks *lock.Keyed
}

func (r *repository) list(ctx context.Context) ([]domain.Room, error) {
	return store.Load[domain.Room](ctx, r.store, store.KeyRooms)
}

func (r *repository) get(ctx context.Context, id string) (*domain.Room, error) {
	rooms, err := r.list(ctx)
	if err != nil {
		return nil, err
	}

	i := slices.IndexFunc(rooms, func(rm domain.Room) bool { return rm.ID == id })
	if i < 0 {
		return nil, domain.ErrRoomNotFound.Wrap("room not found: id=%s", id)
	}

	return &rooms[i], nil
}

// insert appends rm after check accepted the current rooms.
func (r *repository) insert(ctx context.Context, rm domain.Room, check func(rooms []domain.Room) error) error {
	unlock := r.locks.Lock(store.KeyRooms)
	defer unlock()

	rooms, err := r.list(ctx)
	if err != nil {
		return err
	}

	if err := check(rooms); err != nil {
		return err
	}

	return store.Save(ctx, r.store, store.KeyRooms, append(rooms, rm))
}

func (r *repository) update(ctx context.Context, rm domain.Room) error {
	unlock := r.locks.Lock(store.KeyRooms)
	defer unlock()

	rooms, err := r.list(ctx)
	if err != nil {
		return err
	}

	i := slices.IndexFunc(rooms, func(x domain.Room) bool { return x.ID == rm.ID })
	if i < 0 {
		return domain.ErrRoomNotFound.Wrap("room not found: id=%s", rm.ID)
	}
	rooms[i] = rm

	return store.Save(ctx, r.store, store.KeyRooms, rooms)
}

func (r *repository) delete(ctx context.Context, id string) error {
	unlock := r.locks.Lock(store.KeyRooms)
	defer unlock()

	rooms, err := r.list(ctx)
	if err != nil {
		return err
	}

	kept := slices.DeleteFunc(rooms, func(x domain.Room) bool { return x.ID == id })
	return store.Save(ctx, r.store, store.KeyRooms, kept)
}
