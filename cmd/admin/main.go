// Package main provides admin management utilities for VividPlate.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"vividplate/internal/bootstrap"
	"vividplate/internal/config"
	"vividplate/internal/middleware"
	"vividplate/internal/repository"
	"vividplate/internal/service"

	"github.com/spf13/cobra"
)

type app struct {
	users *service.UserService
	subs  *service.SubscriptionService
	menus *service.MenuService
}

func connect() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	middleware.Configure(cfg.Env, cfg.LogLevel)

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	restaurantRepo := repository.NewRestaurantRepository(db)
	menuRepo := repository.NewMenuRepository(db)
	return &app{
		users: service.NewUserService(userRepo),
		subs:  service.NewSubscriptionService(repository.NewSubscriptionRepository(db), userRepo, restaurantRepo),
		menus: service.NewMenuService(restaurantRepo, menuRepo),
	}, nil
}

func parseUserID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(id), nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "VividPlate administration utilities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newAdminFlagCmd("promote", "Grant admin rights to a user", true),
		newAdminFlagCmd("demote", "Revoke admin rights from a user", false),
		newListAdminsCmd(),
		newSetTierCmd(),
		newImportMenuCmd(),
	)
	return root
}

func newAdminFlagCmd(use, short string, grant bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user_id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			a, err := connect()
			if err != nil {
				return err
			}
			user, err := a.users.SetAdmin(cmd.Context(), id, grant)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s (ID: %d) is_admin=%t\n", user.Username, user.ID, user.IsAdmin)
			return nil
		},
	}
}

func newListAdminsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-admins",
		Short: "List all admins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := connect()
			if err != nil {
				return err
			}
			page := repository.Page{Limit: 100}
			out := cmd.OutOrStdout()
			found := 0
			for {
				users, total, err := a.users.ListUsers(cmd.Context(), page)
				if err != nil {
					return err
				}
				for _, u := range users {
					if u.IsAdmin {
						found++
						fmt.Fprintf(out, "ID: %d | Username: %s | Email: %s\n", u.ID, u.Username, u.Email)
					}
				}
				page.Offset += page.Limit
				if int64(page.Offset) >= total {
					break
				}
			}
			if found == 0 {
				fmt.Fprintln(out, "No admins found in the system")
			}
			return nil
		},
	}
}

func newSetTierCmd() *cobra.Command {
	var months int
	var amountCents int64
	cmd := &cobra.Command{
		Use:   "set-tier <user_id> <free|premium>",
		Short: "Grant or revoke a premium subscription",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			a, err := connect()
			if err != nil {
				return err
			}
			summary, err := a.subs.AdminSetTier(cmd.Context(), service.SetTierInput{
				UserID:      id,
				Tier:        args[1],
				Months:      months,
				AmountCents: amountCents,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ user %d is now %s (max %d restaurants, using %d)\n",
				id, summary.Tier, summary.Limits.MaxRestaurants, summary.RestaurantsUsed)
			return nil
		},
	}
	cmd.Flags().IntVar(&months, "months", 1, "premium period in months")
	cmd.Flags().Int64Var(&amountCents, "amount-cents", 0, "recorded payment amount")
	return cmd
}

func newImportMenuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-menu <restaurant_id> <menu.yml>",
		Short: "Append categories and items from a YAML file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			// #nosec G304: path comes from the operator
			raw, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			file, err := parseMenuFile(raw)
			if err != nil {
				return err
			}
			a, err := connect()
			if err != nil {
				return err
			}
			cats, items, err := importMenu(cmd.Context(), a.menus, id, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ imported %d categories and %d items into restaurant %d\n", cats, items, id)
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
