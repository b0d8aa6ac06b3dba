package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/171k/ICT602-Laundroyale/internal/docstore"
	"github.com/171k/ICT602-Laundroyale/internal/model"
)

// EnsureAdmin creates the admin account on first start. An empty password
// skips seeding entirely.
func EnsureAdmin(ctx context.Context, users *UserRepo, username, password string) error {
	if username == "" || password == "" {
		log.Println("Admin seeding skipped: no credentials configured")
		return nil
	}

	_, err := users.GetByUsername(ctx, username)
	if err == nil {
		log.Println("Admin user already exists.")
		return nil
	}
	if !docstore.IsNotFound(err) {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	_, err = users.Create(ctx, model.User{
		Username: username,
		Name:     "Administrator",
		Role:     model.RoleAdmin,
	}, password)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	log.Println("Admin user created successfully.")
	return nil
}
