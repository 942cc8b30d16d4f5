package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"zchat/internal/logger"
)

var (
	authEmail    string
	authPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the issued token pair",
	Run: func(_ *cobra.Command, _ []string) {
		a := mustApp()
		email, password := credentials()

		pair, err := a.api.Login(context.Background(), email, password)
		if err != nil {
			logger.Fatal("login failed", "error", err)
		}
		a.store.Write(pair)
		fmt.Println("Logged in.")
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and store the issued token pair",
	Run: func(_ *cobra.Command, _ []string) {
		a := mustApp()
		email, password := credentials()

		pair, err := a.api.Signup(context.Background(), email, password)
		if err != nil {
			logger.Fatal("signup failed", "error", err)
		}
		a.store.Write(pair)
		fmt.Println("Account created and logged in.")
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored token pair",
	Run: func(_ *cobra.Command, _ []string) {
		a := mustApp()
		a.store.Clear()
		fmt.Println("Logged out.")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated user",
	Run: func(_ *cobra.Command, _ []string) {
		a := mustApp()
		profile, err := a.api.Profile(context.Background())
		if err != nil {
			logger.Fatal("not logged in", "error", err)
		}
		if profile.FullName != "" {
			fmt.Printf("%s <%s>\n", profile.FullName, profile.Email)
			return
		}
		fmt.Println(profile.Email)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{loginCmd, signupCmd} {
		cmd.Flags().StringVar(&authEmail, "email", "", "Account email")
		cmd.Flags().StringVar(&authPassword, "password", "", "Account password (prompted when omitted)")
	}
	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, whoamiCmd)
}

// credentials returns the email/password pair from flags, prompting on
// stdin for anything missing.
func credentials() (string, string) {
	reader := bufio.NewReader(os.Stdin)
	email := authEmail
	if email == "" {
		fmt.Print("email: ")
		line, _ := reader.ReadString('\n')
		email = strings.TrimSpace(line)
	}
	password := authPassword
	if password == "" {
		fmt.Print("password: ")
		line, _ := reader.ReadString('\n')
		password = strings.TrimSpace(line)
	}
	return email, password
}
