// Package services contains the server-side business logic: username
// assignment, refresh-token lifecycle, session issuance, and the account
// operations behind every authentication entry point.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchwatch/auth-backend/internal/common"
	"github.com/couchwatch/auth-backend/internal/randx"
	"github.com/couchwatch/auth-backend/internal/server/models"
	"github.com/couchwatch/auth-backend/internal/server/repositories/users"
)

const (
	// Candidates start short and grow one character for every
	// usernameGrowEvery misses, so the search space expands as the
	// population fills in.
	usernameStartLength = 2
	usernameGrowEvery   = 600

	// Ten growth steps. Exhaustion means something is badly wrong with the
	// store or the entropy source, not that the namespace is full.
	maxUsernameAttempts = 6000
)

// UsernameAssigner gives every account a unique, human-readable username
// before its first session is issued.
type UsernameAssigner struct {
	users users.Repository
	rand  *randx.Source
}

func NewUsernameAssigner(repo users.Repository, rand *randx.Source) *UsernameAssigner {
	return &UsernameAssigner{users: repo, rand: rand}
}

// Assign populates user.UserName with a globally unique candidate and
// persists it. A user that already has a username is left untouched.
//
// The store's unique index is the real guarantee: a candidate that passes
// the pre-check but loses a concurrent race is rejected at update time and
// simply retried with a fresh candidate.
func (a *UsernameAssigner) Assign(ctx context.Context, user *models.User) error {
	if user.UserName != "" {
		return nil
	}

	length := usernameStartLength
	for count := 1; count <= maxUsernameAttempts; count++ {
		if count%usernameGrowEvery == 0 {
			length++
		}

		candidate, err := a.rand.Token(length)
		if err != nil {
			return fmt.Errorf("generating username candidate: %w", err)
		}

		_, err = a.users.FindByUsername(ctx, candidate)
		if err == nil {
			continue // taken
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("checking username candidate: %w", err)
		}

		err = a.users.UpdateUsername(ctx, user.ID, candidate)
		if errors.Is(err, common.ErrorAlreadyExists) {
			continue // lost a concurrent race, pick a new candidate
		}
		if err != nil {
			return fmt.Errorf("persisting username: %w", err)
		}

		user.UserName = candidate
		return nil
	}

	return fmt.Errorf("username generation exhausted after %d attempts: %w",
		maxUsernameAttempts, common.ErrorInternal)
}
