package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crombie/crombieversario/internal/auth"
	"github.com/crombie/crombieversario/internal/store"
)

func newUserCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage dashboard users",
	}

	var (
		email string
		role  string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a dashboard user; the password is read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			password, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && password == "" {
				return errors.New("password expected on stdin")
			}
			password = strings.TrimRight(password, "\r\n")

			c, err := openCore(ctx, load, true)
			if err != nil {
				return err
			}
			defer func() { _ = c.close(context.Background()) }()

			svc := auth.New(c.store, nil, auth.WithEmailDomain(c.cfg.AuthEmailDomain))
			user, err := svc.Register(ctx, email, password, store.Role(role))
			if err != nil {
				return err
			}
			c.log.InfoContext(ctx, "user created",
				slog.String("email", user.Email),
				slog.String("role", string(user.Role)),
			)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), user.ID)
			return err
		},
	}
	create.Flags().StringVar(&email, "email", "", "login email")
	create.Flags().StringVar(&role, "role", string(store.RoleStaff), "super_admin or staff")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(create)
	return cmd
}
