// Package users persists user profiles in an embedded badger store and
// exposes the profile CRUD endpoints.
package users

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripstream/internal/app/models"
)

// Store is the profile persistence contract consumed by the handlers and
// the recommend endpoint's identity lookup.
type Store interface {
	List(ctx context.Context) ([]models.Profile, error)
	Get(ctx context.Context, id string) (*models.Profile, error)
	Create(ctx context.Context, profile models.Profile) (*models.Profile, error)
	Update(ctx context.Context, id string, profile models.Profile) (*models.Profile, error)
	Delete(ctx context.Context, id string) (*models.Profile, error)
	Close() error
}

type BadgerStore struct {
	store  *badgerhold.Store
	logger *zap.Logger
}

func NewBadgerStore(dataDir string, logger *zap.Logger) (*BadgerStore, error) {
	options := badgerhold.DefaultOptions
	options.Options = badger.DefaultOptions(dataDir).WithLogger(nil)

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile store: %w", err)
	}
	return &BadgerStore{store: store, logger: logger}, nil
}

func (s *BadgerStore) List(_ context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := s.store.Find(&profiles, badgerhold.Where("ID").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	if profiles == nil {
		profiles = []models.Profile{}
	}
	return profiles, nil
}

func (s *BadgerStore) Get(_ context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.store.Get(id, &profile); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile %s: %w", id, err)
	}
	return &profile, nil
}

// Create assigns the next user_NNN id and inserts the profile.
func (s *BadgerStore) Create(ctx context.Context, profile models.Profile) (*models.Profile, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	maxID := 0
	for _, p := range existing {
		if n, err := strconv.Atoi(strings.TrimPrefix(p.ID, "user_")); err == nil && n > maxID {
			maxID = n
		}
	}
	profile.ID = fmt.Sprintf("user_%03d", maxID+1)
	if profile.Transactions == nil {
		profile.Transactions = []models.Transaction{}
	}

	if err := s.store.Insert(profile.ID, &profile); err != nil {
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}
	s.logger.Info("Profile created", zap.String("id", profile.ID))
	return &profile, nil
}

// Update replaces the stored profile; the id is never changed by the
// incoming payload.
func (s *BadgerStore) Update(ctx context.Context, id string, profile models.Profile) (*models.Profile, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	profile.ID = id
	if err := s.store.Update(id, &profile); err != nil {
		return nil, fmt.Errorf("failed to update profile %s: %w", id, err)
	}
	return &profile, nil
}

func (s *BadgerStore) Delete(ctx context.Context, id string) (*models.Profile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(id, &models.Profile{}); err != nil {
		return nil, fmt.Errorf("failed to delete profile %s: %w", id, err)
	}
	s.logger.Info("Profile deleted", zap.String("id", id))
	return profile, nil
}

func (s *BadgerStore) Close() error {
	return s.store.Close()
}
