package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teemow/ohq-bluejeans/internal/backend"
	"github.com/teemow/ohq-bluejeans/internal/bluejeans"
	"github.com/teemow/ohq-bluejeans/internal/logging"
)

// MeetingSaver provisions a meeting for a metadata record.
// *backend.Backend satisfies it.
type MeetingSaver interface {
	SaveUserMeeting(ctx context.Context, md backend.Metadata, assignee backend.Assignee) (backend.Metadata, error)
}

// MeetingDeleter removes a vendor meeting. *bluejeans.Client satisfies it.
type MeetingDeleter interface {
	DeleteMeeting(ctx context.Context, userID, meetingID bluejeans.ID) error
}

// Provisioner runs SaveUserMeeting under a per-record lock and persists the
// result, so concurrent calls for one key create at most one meeting.
type Provisioner struct {
	saver   MeetingSaver
	deleter MeetingDeleter
	store   Store
	locker  Locker
	logger  *slog.Logger
}

// NewProvisioner wires a provisioner. deleter may be nil, in which case
// Release only drops the record.
func NewProvisioner(saver MeetingSaver, deleter MeetingDeleter, store Store, locker Locker, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{
		saver:   saver,
		deleter: deleter,
		store:   store,
		locker:  locker,
		logger:  logger,
	}
}

// Store returns the underlying record store.
func (p *Provisioner) Store() Store {
	return p.store
}

// Get returns the stored record for key.
func (p *Provisioner) Get(ctx context.Context, key string) (backend.Metadata, bool, error) {
	return p.store.Get(ctx, key)
}

// Provision makes sure the record at key has a meeting for assignee.
func (p *Provisioner) Provision(ctx context.Context, key string, assignee backend.Assignee) (backend.Metadata, error) {
	unlock, err := p.locker.Lock(ctx, key)
	if err != nil {
		return backend.Metadata{}, err
	}
	defer p.unlock(ctx, key, unlock)

	current, _, err := p.store.Get(ctx, key)
	if err != nil {
		return backend.Metadata{}, fmt.Errorf("failed to load record: %w", err)
	}

	saved, err := p.saver.SaveUserMeeting(ctx, current, assignee)
	if err != nil {
		return current, err
	}

	if !current.Provisioned() && saved.Provisioned() {
		if err := p.store.Put(ctx, key, saved); err != nil {
			return saved, fmt.Errorf("failed to persist record: %w", err)
		}
		p.logger.DebugContext(ctx, "record persisted",
			logging.RecordKey(key), logging.MeetingID(saved.MeetingID.String()))
	}
	return saved, nil
}

// Release deletes the vendor meeting of the record at key, if any, and then
// the record itself. It returns the removed record.
func (p *Provisioner) Release(ctx context.Context, key string) (backend.Metadata, error) {
	unlock, err := p.locker.Lock(ctx, key)
	if err != nil {
		return backend.Metadata{}, err
	}
	defer p.unlock(ctx, key, unlock)

	current, ok, err := p.store.Get(ctx, key)
	if err != nil {
		return backend.Metadata{}, fmt.Errorf("failed to load record: %w", err)
	}
	if !ok {
		return backend.Metadata{}, ErrNotFound
	}

	if current.Provisioned() && p.deleter != nil {
		err := p.deleter.DeleteMeeting(ctx, current.UserID, current.MeetingID)
		if err != nil && !bluejeans.IsNotFound(err) {
			return current, fmt.Errorf("failed to delete meeting: %w", err)
		}
	}

	if err := p.store.Delete(ctx, key); err != nil {
		return current, fmt.Errorf("failed to delete record: %w", err)
	}
	return current, nil
}

// unlock releases a record lock. The work under the lock is already done
// at this point, so a failed or lost lock is logged rather than returned.
func (p *Provisioner) unlock(ctx context.Context, key string, unlock func(context.Context) error) {
	if err := unlock(context.WithoutCancel(ctx)); err != nil {
		p.logger.WarnContext(ctx, "failed to release record lock", logging.RecordKey(key), logging.Err(err))
	}
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
