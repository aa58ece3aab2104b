// ABOUTME: Management subcommands for dashboard-gateway
// ABOUTME: User creation, role permission grants, and the health check

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/dashboard-gateway/internal/config"
	"github.com/2389/dashboard-gateway/internal/permission"
	"github.com/2389/dashboard-gateway/internal/session"
	"github.com/2389/dashboard-gateway/internal/store"
)

const maxDisplayNameLength = 100

// openStore loads the config and opens the database it names.
func openStore(load configLoader) (*store.SQLiteStore, error) {
	cfg, _, err := load()
	if err != nil {
		return nil, err
	}
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}

func newUserCmd(load configLoader) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage dashboard users",
	}

	addCmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a dashboard user",
		Long: `Create a dashboard user with a fixed role.

If --password is omitted a random password is generated and printed once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roleFlag, _ := cmd.Flags().GetString("role")
			name, _ := cmd.Flags().GetString("name")
			password, _ := cmd.Flags().GetString("password")

			username := strings.TrimSpace(args[0])
			if username == "" {
				return fmt.Errorf("username cannot be empty")
			}
			role, err := session.ParseRole(roleFlag)
			if err != nil {
				return err
			}
			name = strings.TrimSpace(name)
			if len(name) > maxDisplayNameLength {
				return fmt.Errorf("display name exceeds maximum length of %d characters", maxDisplayNameLength)
			}

			generated := false
			if password == "" {
				password, err = generatePassword()
				if err != nil {
					return err
				}
				generated = true
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}

			s, err := openStore(load)
			if err != nil {
				return err
			}
			defer s.Close()

			user := &store.User{
				ID:           uuid.New().String(),
				Username:     username,
				PasswordHash: string(hash),
				DisplayName:  name,
				Role:         role,
				CreatedAt:    time.Now(),
			}
			if err := s.CreateUser(cmd.Context(), user); err != nil {
				return fmt.Errorf("creating user: %w", err)
			}

			out := cmd.OutOrStdout()
			green := color.New(color.FgGreen)
			green.Fprint(out, "✓ ")
			fmt.Fprintf(out, "Created %s (%s)\n", user.Username, user.Role)
			if generated {
				yellow := color.New(color.FgYellow)
				yellow.Fprint(out, "  password: ")
				fmt.Fprintln(out, password)
			}
			return nil
		},
	}
	addCmd.Flags().String("role", "", "role: "+roleNames())
	addCmd.Flags().String("name", "", "display name")
	addCmd.Flags().String("password", "", "password (generated when empty)")
	_ = addCmd.MarkFlagRequired("role")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List dashboard users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(load)
			if err != nil {
				return err
			}
			defer s.Close()

			return listUsers(cmd.Context(), s, cmd.OutOrStdout())
		},
	}

	userCmd.AddCommand(addCmd, listCmd)
	return userCmd
}

// listUsers writes a tab-aligned table of all users.
func listUsers(ctx context.Context, users store.UserStore, out io.Writer) error {
	all, err := users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tROLE\tNAME\tCREATED")
	for _, u := range all {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Username, u.Role, u.DisplayName, u.CreatedAt.Format(time.DateOnly))
	}
	return tw.Flush()
}

// printPermissions lists the codes granted to each role.
func printPermissions(ctx context.Context, perms store.PermissionStore, roles []session.Role, out io.Writer) error {
	cyan := color.New(color.FgCyan)
	for _, role := range roles {
		codes, err := perms.ListPermissions(ctx, role)
		if err != nil {
			return fmt.Errorf("listing permissions for %s: %w", role, err)
		}
		cyan.Fprintln(out, role)
		if len(codes) == 0 {
			fmt.Fprintln(out, "  (none)")
		}
		for _, c := range codes {
			fmt.Fprintf(out, "  %s\n", c)
		}
	}
	return nil
}

// roleCodeFlags reads the --role and --code flags shared by grant and revoke.
func roleCodeFlags(cmd *cobra.Command) (session.Role, permission.Code, error) {
	roleFlag, _ := cmd.Flags().GetString("role")
	codeFlag, _ := cmd.Flags().GetString("code")

	role, err := session.ParseRole(roleFlag)
	if err != nil {
		return "", "", err
	}
	code := permission.Code(strings.TrimSpace(codeFlag))
	if code == "" {
		return "", "", fmt.Errorf("--code cannot be empty")
	}
	return role, code, nil
}

func newGrantCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Grant a permission code to a role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, code, err := roleCodeFlags(cmd)
			if err != nil {
				return err
			}
			s, err := openStore(load)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.GrantPermission(cmd.Context(), role, code); err != nil {
				return fmt.Errorf("granting permission: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", code, role)
			return nil
		},
	}
	addRoleCodeFlags(cmd)
	return cmd
}

func newRevokeCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke a permission code from a role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, code, err := roleCodeFlags(cmd)
			if err != nil {
				return err
			}
			s, err := openStore(load)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.RevokePermission(cmd.Context(), role, code); err != nil {
				return fmt.Errorf("revoking permission: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %s from %s\n", code, role)
			return nil
		},
	}
	addRoleCodeFlags(cmd)
	return cmd
}

func addRoleCodeFlags(cmd *cobra.Command) {
	cmd.Flags().String("role", "", "role: "+roleNames())
	cmd.Flags().String("code", "", "permission code, e.g. "+string(permission.DocumentRead))
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("code")
}

func newPermissionsCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "List permission codes granted to each role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			roleFlag, _ := cmd.Flags().GetString("role")
			roles := session.ValidRoles
			if roleFlag != "" {
				role, err := session.ParseRole(roleFlag)
				if err != nil {
					return err
				}
				roles = []session.Role{role}
			}

			s, err := openStore(load)
			if err != nil {
				return err
			}
			defer s.Close()

			return printPermissions(cmd.Context(), s, roles, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("role", "", "limit output to one role")
	return cmd
}

func newHealthCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether a running gateway is healthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := checkHealth(ctx, http.DefaultClient, cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "healthy")
			return nil
		},
	}
}

// checkHealth queries the readiness endpoint of a running gateway.
func checkHealth(ctx context.Context, client *http.Client, cfg *config.Config) error {
	url := fmt.Sprintf("http://%s/health/ready", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("unhealthy: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func roleNames() string {
	names := make([]string, len(session.ValidRoles))
	for i, r := range session.ValidRoles {
		names[i] = r.String()
	}
	return strings.Join(names, ", ")
}

func generatePassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
