package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/forgo/gather/internal/config"
	"github.com/forgo/gather/internal/database"
	"github.com/forgo/gather/internal/handler"
	"github.com/forgo/gather/internal/mail"
	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/service"
)

// ============================================================================
// config
// ============================================================================

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect the resolved configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Load and validate the configuration the server would use",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}
					if err := cfg.Validate(); err != nil {
						return fmt.Errorf("configuration is invalid:\n%w", err)
					}
					w := c.App.Writer
					fmt.Fprintf(w, "env:        %s\n", cfg.Server.Env)
					fmt.Fprintf(w, "port:       %s\n", cfg.Server.Port)
					fmt.Fprintf(w, "public url: %s\n", cfg.Server.PublicURL)
					fmt.Fprintf(w, "admins:     %d\n", len(cfg.Backend.AdminEmails))
					fmt.Fprintf(w, "smtp:       %t\n", cfg.MailEnabled())
					fmt.Fprintf(w, "snapshots:  %t (%s)\n", cfg.Snapshot.Enabled, cfg.Snapshot.Schedule)
					fmt.Fprintln(w, "configuration is valid")
					return nil
				},
			},
		},
	}
}

// ============================================================================
// snapshot
// ============================================================================

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Work with state snapshots",
		Subcommands: []*cli.Command{
			{
				Name:  "pull",
				Usage: "Download the latest snapshot from SurrealDB",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write to this file instead of stdout."},
				},
				Action: func(c *cli.Context) error {
					return withStore(c.Context, func(store *database.SnapshotStore) error {
						data, err := store.Latest(c.Context)
						if err != nil {
							return err
						}
						if out := c.String("out"); out != "" {
							return os.WriteFile(out, data, 0o600)
						}
						_, err = c.App.Writer.Write(data)
						return err
					})
				},
			},
			{
				Name:      "push",
				Usage:     "Upload a snapshot file so the next boot restores it",
				ArgsUsage: "FILE",
				Action: func(c *cli.Context) error {
					data, _, err := readSnapshot(c.Args().First())
					if err != nil {
						return err
					}
					return withStore(c.Context, func(store *database.SnapshotStore) error {
						if err := store.Save(c.Context, data); err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "uploaded %d bytes\n", len(data))
						return nil
					})
				},
			},
			{
				Name:      "inspect",
				Usage:     "Summarize a snapshot file",
				ArgsUsage: "FILE",
				Action: func(c *cli.Context) error {
					_, state, err := readSnapshot(c.Args().First())
					if err != nil {
						return err
					}
					printSummary(c.App.Writer, state)
					return nil
				},
			},
		},
	}
}

// withStore connects to the configured SurrealDB for the duration of fn
func withStore(ctx context.Context, fn func(*database.SnapshotStore) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
		TLS:       cfg.Database.TLS,
	})
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.Connect(ctx); err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return fn(database.NewSnapshotStore(db, cfg.Snapshot.Retention))
}

// readSnapshot reads and decodes a snapshot file; "-" reads stdin
func readSnapshot(path string) ([]byte, *service.State, error) {
	if path == "" {
		return nil, nil, errors.New("snapshot file required")
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, nil, err
	}
	state, err := service.RestoreState(data)
	if err != nil {
		return nil, nil, err
	}
	return data, state, nil
}

func printSummary(w io.Writer, s *service.State) {
	fmt.Fprintf(w, "users:           %d\n", len(s.Users))
	fmt.Fprintf(w, "groups:          %d\n", len(s.Groups))
	fmt.Fprintf(w, "archived groups: %d\n", len(s.ArchivedGroups))
	failures := 0
	for _, e := range s.Log {
		if e.IsError() {
			failures++
		}
	}
	fmt.Fprintf(w, "log entries:     %d (%d failures)\n", len(s.Log), failures)
	if s.LastTick != nil {
		fmt.Fprintf(w, "last tick:       %s\n", s.LastTick.UTC().Format(time.RFC3339))
	}
	groups := s.SortedGroups()
	if len(groups) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, g := range groups {
		fmt.Fprintf(w, "%s  %-30s  %-8s  %d events\n", g.ID, g.Name, g.Visibility, model.TotalEvents(g))
	}
}

// ============================================================================
// calendar
// ============================================================================

func calendarCommand() *cli.Command {
	return &cli.Command{
		Name:      "calendar",
		Usage:     "Export a group's events from a snapshot file as iCalendar",
		ArgsUsage: "SNAPSHOT GROUP_ID",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "site", Value: "Gather", Usage: "Site name used in the product id and UIDs."},
			&cli.StringFlag{Name: "base-url", Value: "http://localhost:3000", Usage: "Frontend URL for event links."},
		},
		Action: func(c *cli.Context) error {
			_, state, err := readSnapshot(c.Args().Get(0))
			if err != nil {
				return err
			}
			g, ok := state.Group(model.GroupID(c.Args().Get(1)))
			if !ok {
				return model.ErrGroupNotFound
			}
			cal := handler.BuildCalendar(g, c.String("site"), c.String("base-url"), time.Now())
			_, err = io.WriteString(c.App.Writer, cal.Serialize())
			return err
		},
	}
}

// ============================================================================
// mail
// ============================================================================

func mailCommand() *cli.Command {
	return &cli.Command{
		Name:  "mail",
		Usage: "Render or send the transactional emails",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Value: string(mail.KindLogin), Usage: "login, delete_account or event_reminder."},
			&cli.StringFlag{Name: "to", Value: "someone@example.com", Usage: "Recipient address."},
			&cli.BoolFlag{Name: "send", Usage: "Deliver through the configured sender instead of printing."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			content, err := sampleContent(mail.Kind(c.String("kind")))
			if err != nil {
				return err
			}
			to, err := model.ValidateEmail(c.String("to"))
			if err != nil {
				return err
			}

			renderer, err := mail.NewRenderer(cfg.Server.SiteName, cfg.Server.PublicURL)
			if err != nil {
				return err
			}
			msg, err := renderer.Render(to, content)
			if err != nil {
				return err
			}

			if !c.Bool("send") {
				fmt.Fprintf(c.App.Writer, "Subject: %s\n\n%s\n", msg.Subject, msg.TextBody)
				return nil
			}

			var sender mail.Sender = mail.NewLogSender(slog.Default())
			if cfg.MailEnabled() {
				smtp, err := mail.NewSMTPSender(mail.SMTPConfig{
					Host:     cfg.Mail.Host,
					Port:     cfg.Mail.Port,
					Username: cfg.Mail.Username,
					Password: cfg.Mail.Password,
					From:     cfg.Mail.From,
				})
				if err != nil {
					return err
				}
				sender = smtp
			}
			ctx, cancel := context.WithTimeout(c.Context, cfg.Mail.Timeout)
			defer cancel()
			return sender.Send(ctx, msg)
		},
	}
}

// sampleContent builds placeholder content for previews
func sampleContent(kind mail.Kind) (mail.Content, error) {
	switch kind {
	case mail.KindLogin:
		return mail.LoginLink{Token: "preview-token", ExpiresIn: time.Hour}, nil
	case mail.KindDeleteAccount:
		return mail.DeleteConfirmation{Token: "preview-token", UserName: "Ada", ExpiresIn: time.Hour}, nil
	case mail.KindEventReminder:
		return mail.EventReminder{
			GroupID:   "preview",
			GroupName: "Run Club",
			EventName: "Saturday 5k",
			StartTime: time.Now().Add(24 * time.Hour).Truncate(time.Hour),
			Duration:  time.Hour,
			Timezone:  "UTC",
			Address:   "Parc Monceau",
		}, nil
	}
	return nil, fmt.Errorf("unknown email kind %q (login, delete_account, event_reminder)", kind)
}
