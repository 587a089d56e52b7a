package cli

import (
	"context"
	"fmt"
	"os"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for an email, display name and password and creates a new
// account. On success the user is logged in immediately.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	name, err := getSimpleText(a.reader, "Enter display name", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.Register(ctx, email, password, name); err != nil {
		fmt.Println("Registration failed:", err)
		return err
	}

	a.printSession()
	return nil
}

// Login prompts for credentials and authenticates.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.Login(ctx, email, password); err != nil {
		fmt.Println("Login failed:", err)
		return err
	}

	a.printSession()
	return nil
}

// Logout ends the session both remotely and locally.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		fmt.Println("Logout failed:", err)
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func (a *App) printSession() {
	state := a.auth.State()
	if state.User == nil || state.Session == nil {
		return
	}
	fmt.Printf("Logged in as %s (%s), session expires %s\n",
		state.User.Email, state.User.Role, state.Session.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
}
