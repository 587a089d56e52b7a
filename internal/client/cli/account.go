package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/webstarter/authkit/internal/registry"
)

// Whoami prints the current user and session details.
func (a *App) Whoami(_ context.Context) error {
	state := a.auth.State()
	if !state.Authenticated {
		fmt.Println("Not logged in")
		return nil
	}

	u := state.User
	fmt.Printf("ID:      %s\n", u.ID)
	fmt.Printf("Email:   %s\n", u.Email)
	fmt.Printf("Name:    %s\n", u.Name)
	fmt.Printf("Role:    %s\n", u.Role)
	if u.AvatarURL != "" {
		fmt.Printf("Avatar:  %s\n", u.AvatarURL)
	}
	fmt.Printf("Expires: %s\n", state.Session.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

// Refresh renews the session and prints the new expiry.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.auth.RefreshSession(ctx); err != nil {
		fmt.Println("Refresh failed:", err)
		return err
	}
	a.printSession()
	return nil
}

// UpdateName prompts for a new display name and applies it.
func (a *App) UpdateName(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter new display name", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.UpdateUser(ctx, registry.Patch{Name: &name}); err != nil {
		fmt.Println("Update failed:", err)
		return err
	}

	fmt.Println("Name updated")
	return nil
}

// Reset prompts for an email and requests a password reset. The outcome is
// the same whether or not the email is registered.
func (a *App) Reset(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.ResetPassword(ctx, email); err != nil {
		fmt.Println("Reset request failed:", err)
		return err
	}

	fmt.Println("If the address is registered, a reset link has been sent")
	return nil
}

// Passwd prompts for the current and new password and changes it.
func (a *App) Passwd(ctx context.Context) error {
	current, err := getPassword("Current password", os.Stdout)
	if err != nil {
		return err
	}

	next, err := getPassword("New password", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.ChangePassword(ctx, current, next); err != nil {
		fmt.Println("Password change failed:", err)
		return err
	}

	fmt.Println("Password changed")
	return nil
}
