package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/kiosk-booking/internal/auth"
	"github.com/example/kiosk-booking/internal/config"
	"github.com/example/kiosk-booking/internal/db"
	"github.com/example/kiosk-booking/internal/migrate"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage attendee profiles",
	}
	cmd.AddCommand(newUserAddCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var reg auth.Registration

	c := &cobra.Command{
		Use:   "add",
		Short: "Register an attendee from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := migrate.Up(ctx, d); err != nil {
				return err
			}

			store := auth.NewStore(d, cfg.CookieHashKey, cfg.CookieBlockKey)
			p, err := store.Register(ctx, reg)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "created profile id=%s email=%s\n", p.ID, p.Email)
			return nil
		},
	}

	c.Flags().StringVar(&reg.FullName, "full-name", "", "attendee full name")
	c.Flags().StringVar(&reg.Mobile, "mobile", "", "mobile number")
	c.Flags().StringVar(&reg.Email, "email", "", "email address")
	c.Flags().StringVar(&reg.Password, "password", "", "password")
	c.Flags().StringVar(&reg.Organization, "organization", "", "organization")
	c.Flags().StringVar(&reg.Designation, "designation", "", "designation")
	c.Flags().StringVar(&reg.OrganizationType, "organization-type", "", "organization type")
	c.Flags().BoolVar(&reg.ConsentCommunication, "consent", false, "communication consent")
	_ = c.MarkFlagRequired("full-name")
	_ = c.MarkFlagRequired("mobile")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}
