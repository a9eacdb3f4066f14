package main

import (
	"fmt"

	"procurement-transparency/internal/auth"
	"procurement-transparency/internal/service"

	"github.com/spf13/cobra"
)

var (
	userUsername string
	userPassword string
	userName     string
	userRole     string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an account with the given role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.close()

		tokens := auth.NewTokenIssuer(e.cfg.JWTSecret, e.cfg.JWTExpire)
		u, err := service.NewAuthService(e.deps, tokens).CreateUser(ctx, service.CreateUserInput{
			Username: userUsername,
			Name:     userName,
			Password: userPassword,
			Role:     userRole,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (id %d)\n", u.Role, u.Username, u.ID)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&userUsername, "username", "", "Login name")
	createUserCmd.Flags().StringVar(&userPassword, "password", "", "Password, at least 8 characters")
	createUserCmd.Flags().StringVar(&userName, "name", "", "Display name")
	createUserCmd.Flags().StringVar(&userRole, "role", "official", "Role: citizen, official or admin")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createUserCmd)
}
