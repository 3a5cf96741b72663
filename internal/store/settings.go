package store

import (
	"context"
	"errors"

	"github.com/foamdesk/foamdesk/internal/model"
)

// GetSettings returns the saved settings, or the factory defaults when none are saved.
func (s *Store) GetSettings(ctx context.Context) (model.Settings, error) {
	rec, err := get(ctx, s.db, KindSettings, SettingsID)
	if errors.Is(err, ErrNotFound) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.Settings{}, err
	}
	return decode[model.Settings](KindSettings, rec)
}

// SaveSettings replaces the settings record.
func (s *Store) SaveSettings(ctx context.Context, settings model.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return put(ctx, s.db, KindSettings, SettingsID, settings)
}

// GetSession returns the signed-in user or ErrNotFound.
func (s *Store) GetSession(ctx context.Context) (model.Session, error) {
	rec, err := get(ctx, s.db, KindSession, SessionID)
	if err != nil {
		return model.Session{}, err
	}
	return decode[model.Session](KindSession, rec)
}

// SaveSession records session as the signed-in user.
func (s *Store) SaveSession(ctx context.Context, session model.Session) error {
	return put(ctx, s.db, KindSession, SessionID, session)
}

// DeleteSession signs the current user out. It is not an error when nobody is signed in.
func (s *Store) DeleteSession(ctx context.Context) error {
	err := remove(ctx, s.db, KindSession, SessionID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
