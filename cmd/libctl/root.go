package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"libraryCatalog/internal/auth"
	"libraryCatalog/internal/config"
	"libraryCatalog/internal/db"
	grpcserver "libraryCatalog/internal/grpc"
	"libraryCatalog/internal/logger"
	"libraryCatalog/internal/seed"
	"libraryCatalog/models"
	"libraryCatalog/repository"
)

type app struct {
	cfg *config.Config
	log *logrus.Entry
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "libctl",
		Short:         "Library catalog administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithDefaults()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.NewWithOutput(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format).WithField("app", "libctl")
			return nil
		},
	}
	root.AddCommand(
		a.migrateCmd(),
		a.seedCmd(),
		a.tokenCmd(),
		a.setRoleCmd(),
		a.askCmd(),
		a.searchCmd(),
	)
	return root
}

// openDB connects without migrating; callers decide whether to migrate.
func (a *app) openDB() (*sqlx.DB, error) {
	return db.Connect(a.cfg.Database.Driver, a.cfg.Database.Path)
}

func (a *app) migratedDB() (*sqlx.DB, error) {
	return db.Open(a.cfg.Database.Driver, a.cfg.Database.Path)
}

func printJSON(w io.Writer, v any) error {
	b, err := jsoniter.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func (a *app) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "migrate", Short: "Manage the database schema"}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.migratedDB()
			if err != nil {
				return err
			}
			defer d.Close()
			return a.printVersion(cmd, d)
		},
	}, &cobra.Command{
		Use:   "rollback",
		Short: "Revert the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.openDB()
			if err != nil {
				return err
			}
			defer d.Close()
			if err := db.RollbackLast(d); err != nil {
				return err
			}
			return a.printVersion(cmd, d)
		},
	}, &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.openDB()
			if err != nil {
				return err
			}
			defer d.Close()
			return a.printVersion(cmd, d)
		},
	})
	return cmd
}

func (a *app) printVersion(cmd *cobra.Command, d *sqlx.DB) error {
	v, err := db.Version(d)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
	return nil
}

func (a *app) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo users and books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.migratedDB()
			if err != nil {
				return err
			}
			defer d.Close()
			res, err := seed.Run(cmd.Context(), repository.NewUserRepository(d), repository.NewBookRepository(d), a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d books\n", res.Users, res.Books)
			return nil
		},
	}
}

// mintToken signs a token for the user with the given email.
func (a *app) mintToken(ctx context.Context, email string, ttl time.Duration) (string, error) {
	d, err := a.migratedDB()
	if err != nil {
		return "", err
	}
	defer d.Close()
	u, err := repository.NewUserRepository(d).GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", fmt.Errorf("no user with email %s", email)
	}
	return auth.IssueToken(a.cfg.Auth.Secret, u, ttl)
}

func (a *app) tokenCmd() *cobra.Command {
	var (
		email string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for an existing user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ttl <= 0 {
				ttl = a.cfg.Auth.TTL
			}
			tok, err := a.mintToken(cmd.Context(), email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_TTL)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) setRoleCmd() *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "Change a user's role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, ok := models.ParseRole(role)
			if !ok {
				return fmt.Errorf("role must be one of ADMIN, LIBRARIAN, MEMBER")
			}
			d, err := a.migratedDB()
			if err != nil {
				return err
			}
			defer d.Close()
			users := repository.NewUserRepository(d)
			u, err := users.GetByEmail(cmd.Context(), email)
			if err != nil {
				return err
			}
			if u == nil {
				return fmt.Errorf("no user with email %s", email)
			}
			u, err = users.UpdateRole(cmd.Context(), u.ID, r)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&role, "role", "", "ADMIN, LIBRARIAN or MEMBER")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

// dial connects to the server's gRPC endpoint, authenticating as email when set.
func (a *app) dial(ctx context.Context, addr, email string) (*grpcserver.Client, func() error, error) {
	if addr == "" {
		addr = a.cfg.GRPC.Address
		if strings.HasPrefix(addr, ":") {
			addr = "localhost" + addr
		}
	}
	var token string
	if email != "" {
		t, err := a.mintToken(ctx, email, 5*time.Minute)
		if err != nil {
			return nil, nil, err
		}
		token = t
	}
	cc, err := grpcserver.Dial(addr)
	if err != nil {
		return nil, nil, err
	}
	return grpcserver.NewClient(cc, token), cc.Close, nil
}

func (a *app) askCmd() *cobra.Command {
	var addr, email string
	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask the catalog assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeFn, err := a.dial(cmd.Context(), addr, email)
			if err != nil {
				return err
			}
			defer closeFn()
			res, err := client.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "gRPC address (defaults to GRPC_ADDRESS)")
	cmd.Flags().StringVar(&email, "email", "member@library.local", "ask as this user")
	return cmd
}

func (a *app) searchCmd() *cobra.Command {
	var (
		addr string
		topK int
	)
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Semantic search over the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeFn, err := a.dial(cmd.Context(), addr, "")
			if err != nil {
				return err
			}
			defer closeFn()
			res, err := client.Search(cmd.Context(), strings.Join(args, " "), topK)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "gRPC address (defaults to GRPC_ADDRESS)")
	cmd.Flags().IntVar(&topK, "top-k", 10, "number of results")
	return cmd
}
