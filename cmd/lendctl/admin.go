package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"material_lending/config"
	"material_lending/models"
	"material_lending/notify"
	"material_lending/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	userName  string
	userEmail string
	userRole  string
	seedFile  string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User management commands",
}

var addUserCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a user (existing users keep their role)",
	RunE: func(cmd *cobra.Command, args []string) error {
		role := models.Role(userRole)
		if !role.Valid() {
			return fmt.Errorf("invalid role %q: want student or professor", userRole)
		}
		d, err := open(false)
		if err != nil {
			return err
		}
		defer d.close()

		u, err := d.repo.FindOrCreateUser(cmd.Context(), userName, userEmail, role)
		if err != nil {
			return fmt.Errorf("failed to add user: %w", err)
		}
		fmt.Printf("✓ User #%d %s <%s> (%s)\n", u.ID, u.Name, u.Email, u.Role)
		return nil
	},
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role",
	Short: "Change a user's role and revoke their sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		role := models.Role(userRole)
		if !role.Valid() {
			return fmt.Errorf("invalid role %q: want student or professor", userRole)
		}
		d, err := open(true)
		if err != nil {
			return err
		}
		defer d.close()

		u, err := d.repo.FindUserByEmail(cmd.Context(), userEmail)
		if err != nil {
			return fmt.Errorf("find user %s: %w", userEmail, err)
		}
		if err := d.repo.SetUserRole(cmd.Context(), u.ID, role); err != nil {
			return err
		}
		sess := session.NewAppSessionStore(d.rdb, d.cfg.SessionTTL)
		if err := sess.RevokeAllForUser(cmd.Context(), u.ID); err != nil {
			d.log.Warn("revoke sessions failed", zap.Uint("user_id", u.ID), zap.Error(err))
		}
		fmt.Printf("✓ %s is now %s\n", u.Email, role)
		return nil
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Issue or revoke app_session cookies",
}

var issueSessionCmd = &cobra.Command{
	Use:   "issue",
	Short: "Create a session for a user and print the cookie",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := open(true)
		if err != nil {
			return err
		}
		defer d.close()

		u, err := d.repo.FindUserByEmail(cmd.Context(), userEmail)
		if err != nil {
			return fmt.Errorf("find user %s: %w", userEmail, err)
		}
		sess := session.NewAppSessionStore(d.rdb, d.cfg.SessionTTL)
		id, err := sess.Issue(cmd.Context(), u.ID)
		if err != nil {
			return fmt.Errorf("failed to issue session: %w", err)
		}
		fmt.Printf("app_session=%s\n", id)
		fmt.Fprintf(os.Stderr, "expires in %s\n", sess.TTL())
		return nil
	},
}

var revokeSessionCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke every session of a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := open(true)
		if err != nil {
			return err
		}
		defer d.close()

		u, err := d.repo.FindUserByEmail(cmd.Context(), userEmail)
		if err != nil {
			return fmt.Errorf("find user %s: %w", userEmail, err)
		}
		if err := session.NewAppSessionStore(d.rdb, d.cfg.SessionTTL).RevokeAllForUser(cmd.Context(), u.ID); err != nil {
			return err
		}
		fmt.Printf("✓ Sessions of %s revoked\n", u.Email)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create or update categories and materials from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := open(false)
		if err != nil {
			return err
		}
		defer d.close()

		path := seedFile
		if path == "" {
			path = d.cfg.PolicyFile
		}
		if path == "" {
			return fmt.Errorf("no catalog file: pass --file or set POLICY_FILE")
		}
		f, err := config.LoadFile(path)
		if err != nil {
			return err
		}

		n := 0
		for _, cs := range f.Catalog {
			cat, err := d.repo.FindOrCreateCategory(cmd.Context(), cs.Name)
			if err != nil {
				return fmt.Errorf("category %q: %w", cs.Name, err)
			}
			for _, ms := range cs.Materials {
				m := &models.Material{
					Name:              strings.TrimSpace(ms.Name),
					Description:       ms.Description,
					Quantity:          ms.Quantity,
					MaxDaysPerRequest: ms.MaxDays,
					CategoryID:        cat.ID,
				}
				if err := d.repo.UpsertMaterial(cmd.Context(), m); err != nil {
					return fmt.Errorf("material %q: %w", ms.Name, err)
				}
				n++
			}
		}
		fmt.Printf("✓ Seeded %d categories, %d materials\n", len(f.Catalog), n)
		return nil
	},
}

var workerCmd = &cobra.Command{
	Use:   "notify-worker",
	Short: "Deliver queued order notifications by mail",
	Long: `notify-worker pops messages pushed by NOTIFY_BACKEND=redis and mails them
via SMTP_*. Messages that fail are moved to the dead-letter list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := open(true)
		if err != nil {
			return err
		}
		defer d.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		mailer := notify.NewMailer(notify.LoadSMTPFromEnv(), d.log.Named("mail"))
		w := notify.NewWorker(d.rdb, mailer, d.log.Named("worker"), "")
		d.log.Info("notify worker started", zap.String("queue", notify.DefaultQueueKey))
		return w.Run(ctx)
	},
}

func init() {
	addUserCmd.Flags().StringVar(&userName, "name", "", "display name")
	_ = addUserCmd.MarkFlagRequired("name")
	for _, c := range []*cobra.Command{addUserCmd, setRoleCmd, issueSessionCmd, revokeSessionCmd} {
		c.Flags().StringVar(&userEmail, "email", "", "user email")
		_ = c.MarkFlagRequired("email")
	}
	addUserCmd.Flags().StringVar(&userRole, "role", string(models.RoleStudent), "student or professor")
	setRoleCmd.Flags().StringVar(&userRole, "role", "", "student or professor")
	_ = setRoleCmd.MarkFlagRequired("role")
	seedCmd.Flags().StringVar(&seedFile, "file", "", "catalog YAML (default POLICY_FILE)")

	userCmd.AddCommand(addUserCmd, setRoleCmd)
	sessionCmd.AddCommand(issueSessionCmd, revokeSessionCmd)
	rootCmd.AddCommand(userCmd, sessionCmd, seedCmd, workerCmd)
}
