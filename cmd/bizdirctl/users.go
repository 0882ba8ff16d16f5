package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devrev/bizdir/internal/model"
	"github.com/devrev/bizdir/internal/store"
	"github.com/devrev/bizdir/internal/validation"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	userID    string
	userEmail string
	userName  string
	userRole  string

	roleUser string
	roleName string
)

// createUserCmd inserts a profile, typically the first admin
var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user profile with a role",
	Long: `Create a user profile with a role.

Profiles are otherwise created on a user's first authenticated request with
the "user" role. Use this to bootstrap the first admin, then mint a token
for the printed id with "bizdirctl token".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		profile, err := createUser(ctx, e.store, newUser{
			ID:       userID,
			Email:    userEmail,
			FullName: userName,
			Role:     model.Role(userRole),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), profile.ID)
		return nil
	},
}

// setRoleCmd changes the role of an existing profile
var setRoleCmd = &cobra.Command{
	Use:   "set-role",
	Short: "Change a user's role",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := setRole(ctx, e.store, roleUser, model.Role(roleName)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", roleUser, roleName)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&userID, "id", "", "profile id, must match the token subject (default: new uuid)")
	createUserCmd.Flags().StringVar(&userEmail, "email", "", "email address")
	createUserCmd.Flags().StringVar(&userName, "name", "", "full name")
	createUserCmd.Flags().StringVar(&userRole, "role", string(model.RoleAdmin), "user, business_owner or admin")
	_ = createUserCmd.MarkFlagRequired("email")

	setRoleCmd.Flags().StringVar(&roleUser, "user", "", "profile id")
	setRoleCmd.Flags().StringVar(&roleName, "role", "", "user, business_owner or admin")
	_ = setRoleCmd.MarkFlagRequired("user")
	_ = setRoleCmd.MarkFlagRequired("role")
}

type newUser struct {
	ID       string
	Email    string
	FullName string
	Role     model.Role
}

func createUser(ctx context.Context, profiles store.ProfileStore, in newUser) (*model.Profile, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", in.Role)
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	} else if _, err := uuid.Parse(in.ID); err != nil {
		return nil, fmt.Errorf("id must be a uuid: %w", err)
	}

	ts := time.Now().UTC()
	profile := &model.Profile{
		ID:        in.ID,
		Email:     in.Email,
		FullName:  strings.TrimSpace(in.FullName),
		Role:      in.Role,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := profiles.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("a profile with this id or email already exists; use set-role to change it")
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

func setRole(ctx context.Context, profiles store.ProfileStore, id string, role model.Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	if err := profiles.UpdateProfileRole(ctx, id, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no profile with id %q", id)
		}
		return fmt.Errorf("failed to update role: %w", err)
	}
	return nil
}
