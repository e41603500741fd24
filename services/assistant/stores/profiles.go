// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel/attribute"
)

const profileKeyPrefix = "profile/"

// pastPurchaseLimit caps the per-profile purchase history.
const pastPurchaseLimit = 10

// ProfileStore persists long-lived user profiles.
//
// # Thread Safety
//
// Safe for concurrent use. Read-modify-write methods retry on transaction
// conflict.
type ProfileStore struct {
	db *DB
}

// NewProfileStore creates a store over an open database.
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func profileKey(userID string) []byte {
	return []byte(profileKeyPrefix + userID)
}

// defaultProfile returns the profile a first-time user starts with.
func defaultProfile(userID string) *datatypes.Profile {
	return &datatypes.Profile{
		UserID:            userID,
		DietaryPreference: "vegetarian",
		BudgetPerMeal:     60,
		MealGoal:          "3 meals",
		CookingSkill:      "intermediate",
	}
}

// GetOrCreate loads a user's profile, creating the default record on first
// access so every flow sees a fully populated profile.
func (s *ProfileStore) GetOrCreate(ctx context.Context, userID string) (*datatypes.Profile, error) {
	ctx, span := tracer.Start(ctx, "ProfileStore.GetOrCreate")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	key := profileKey(userID)
	var profile datatypes.Profile
	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		err := getJSON(txn, key, &profile)
		if errors.Is(err, badger.ErrKeyNotFound) {
			profile = *defaultProfile(userID)
			return setJSON(txn, key, &profile, 0)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load profile for user %s: %w", userID, err)
	}
	return &profile, nil
}

// Put overwrites a user's profile.
func (s *ProfileStore) Put(ctx context.Context, profile *datatypes.Profile) error {
	ctx, span := tracer.Start(ctx, "ProfileStore.Put")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", profile.UserID))

	if profile.UserID == "" {
		return datatypes.NewValidationError("user_id", "must not be empty")
	}
	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return setJSON(txn, profileKey(profile.UserID), profile, 0)
	})
	if err != nil {
		return fmt.Errorf("store profile for user %s: %w", profile.UserID, err)
	}
	return nil
}

// RecordFeedback appends a completed feedback object to the profile history.
func (s *ProfileStore) RecordFeedback(ctx context.Context, userID string, record datatypes.FeedbackRecord) error {
	ctx, span := tracer.Start(ctx, "ProfileStore.RecordFeedback")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("session.id", record.SessionID),
	)

	return s.update(ctx, userID, func(p *datatypes.Profile) {
		p.FeedbackHistory = append(p.FeedbackHistory, record)
	})
}

// RecordPurchases appends purchased item names, keeping the most recent ten.
func (s *ProfileStore) RecordPurchases(ctx context.Context, userID string, items []string) error {
	ctx, span := tracer.Start(ctx, "ProfileStore.RecordPurchases")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.Int("purchases.count", len(items)),
	)

	if len(items) == 0 {
		return nil
	}
	return s.update(ctx, userID, func(p *datatypes.Profile) {
		p.PastPurchases = append(p.PastPurchases, items...)
		if excess := len(p.PastPurchases) - pastPurchaseLimit; excess > 0 {
			p.PastPurchases = p.PastPurchases[excess:]
		}
	})
}

// update applies fn to the stored profile, creating the default first when
// the user has none yet.
func (s *ProfileStore) update(ctx context.Context, userID string, fn func(*datatypes.Profile)) error {
	key := profileKey(userID)
	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		var profile datatypes.Profile
		err := getJSON(txn, key, &profile)
		if errors.Is(err, badger.ErrKeyNotFound) {
			profile = *defaultProfile(userID)
		} else if err != nil {
			return err
		}
		fn(&profile)
		return setJSON(txn, key, &profile, 0)
	})
	if err != nil {
		return fmt.Errorf("update profile for user %s: %w", userID, err)
	}
	return nil
}
