package main

import (
	"errors"
	"fmt"
	"time"

	"conveycrm/internal/config"
	"conveycrm/internal/domain"
	"conveycrm/internal/modules/lead"
	"conveycrm/internal/modules/user"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// system is the actor recorded for changes made from the command line.
var system = domain.Actor{UserID: "system", Role: domain.RoleAdmin}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load outcome codes, demo users and demo leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, wf, err := env()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		added, err := a.Outcomes.Bootstrap(ctx, wf.Outcomes)
		if err != nil {
			return err
		}
		logger.Info("outcome codes", zap.Int("added", added))

		var agentIDs []string
		for _, u := range demoUsers {
			created, err := a.Users.Create(ctx, system, u)
			if errors.Is(err, user.ErrEmailTaken) {
				logger.Info("user exists, skipped", zap.String("email", u.Email))
				continue
			}
			if err != nil {
				return fmt.Errorf("create %s: %w", u.Email, err)
			}
			logger.Info("user created", zap.String("email", u.Email), zap.String("role", u.Role))
			if created.Role == domain.RoleAgent {
				agentIDs = append(agentIDs, created.ID)
			}
		}
		if len(agentIDs) == 0 {
			logger.Info("users already seeded, leads skipped")
			return nil
		}

		for i, req := range demoLeads {
			l, err := a.Leads.Create(ctx, system, req)
			if err != nil {
				return fmt.Errorf("create lead %s: %w", req.Name, err)
			}
			if i%2 == 0 {
				agent := agentIDs[i%len(agentIDs)]
				if _, err := a.Leads.Assign(ctx, system, true, l.ID, lead.AssignRequest{AssignedTo: agent, Revision: l.Revision}); err != nil {
					return fmt.Errorf("assign lead %s: %w", req.Name, err)
				}
			}
		}
		logger.Info("demo leads created", zap.Int("count", len(demoLeads)))
		return nil
	},
}

var demoUsers = []user.CreateRequest{
	{Name: "Admin", Email: "admin@conveycrm.local", Password: "admin12345", Role: string(domain.RoleAdmin)},
	{Name: "Maya Manager", Email: "manager@conveycrm.local", Password: "manager12345", Role: string(domain.RoleManager)},
	{Name: "Adam Agent", Email: "adam@conveycrm.local", Password: "agent12345", Role: string(domain.RoleAgent)},
	{Name: "Amira Agent", Email: "amira@conveycrm.local", Password: "agent12345", Role: string(domain.RoleAgent)},
}

var demoLeads = []lead.CreateLeadRequest{
	{Name: "John Smith", Email: "john.smith@example.com", Phone: "07700 900001", Source: string(domain.SourceHoowla), Priority: string(domain.PriorityHigh)},
	{Name: "Sarah Johnson", Email: "sarah.j@example.com", Phone: "07700 900002", Source: string(domain.SourceComparisonSite)},
	{Name: "Mike Wilson", Email: "mike.w@example.com", Phone: "07700 900003", Source: string(domain.SourceDirect), Priority: string(domain.PriorityLow)},
	{Name: "Emma Davis", Email: "emma.d@example.com", Phone: "07700 900004", Source: string(domain.SourceReferral)},
	{Name: "Oliver Brown", Email: "oliver.b@example.com", Phone: "07700 900005", Source: string(domain.SourceHoowla)},
}

var (
	newUserName     string
	newUserEmail    string
	newUserPassword string
	newUserRole     string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user, e.g. the first admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := env()
		if err != nil {
			return err
		}
		u, err := a.Users.Create(cmd.Context(), system, user.CreateRequest{
			Name:     newUserName,
			Email:    newUserEmail,
			Password: newUserPassword,
			Role:     newUserRole,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", u.Email, u.Role, u.ID)
		return nil
	},
}

var validateWorkflowCmd = &cobra.Command{
	Use:   "validate-workflow [file]",
	Short: "Parse and validate a workflow rules file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := workflowPath
		if len(args) == 1 {
			path = args[0]
		}
		wf, err := config.LoadWorkflow(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ok: %d outcome codes, default max attempts %d, archive outcome %s\n",
			len(wf.Outcomes), wf.DefaultMaxAttempts, wf.MaxAttemptsOutcome)
		return nil
	},
}

var markOverdueCmd = &cobra.Command{
	Use:   "mark-overdue",
	Short: "Persist Overdue on sent payments past their due date",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := env()
		if err != nil {
			return err
		}
		n, err := a.Payments.MarkOverdue(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "payments marked overdue: %d\n", n)
		return nil
	},
}

var purgeTokensCmd = &cobra.Command{
	Use:   "purge-tokens",
	Short: "Delete revoked-token records whose tokens have expired",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := env()
		if err != nil {
			return err
		}
		n, err := a.Revoked.DeleteExpired(cmd.Context(), time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "revoked tokens purged: %d\n", n)
		return nil
	},
}

func init() {
	f := createUserCmd.Flags()
	f.StringVar(&newUserName, "name", "", "display name")
	f.StringVar(&newUserEmail, "email", "", "login email")
	f.StringVar(&newUserPassword, "password", "", "password (min 8 characters)")
	f.StringVar(&newUserRole, "role", string(domain.RoleAdmin), "Admin, Manager or Agent")
	_ = createUserCmd.MarkFlagRequired("name")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")
}
