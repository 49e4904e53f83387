package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeronorth-oss/znctl/internal/log"
	"github.com/zeronorth-oss/znctl/internal/metrics"
	"github.com/zeronorth-oss/znctl/pkg/zn"
)

// newEnsureCmd creates the ensure command and its per-kind subcommands.
func newEnsureCmd() *cobra.Command {
	ensureCmd := &cobra.Command{
		Use:   "ensure",
		Short: "Find a named resource, creating it when absent",
		Long: `Ensure resolves a resource by case-insensitive exact name match. Exactly one
match returns its ID; zero matches creates the resource; more than one match
is an error, since silently picking one would be unsafe. The resulting ID is
printed to stdout.`,
	}

	ensureCmd.PersistentFlags().StringP("name", "n", "", "Resource name")
	ensureCmd.PersistentFlags().Bool("double-check", false,
		"Resolve twice with a randomized delay before creating, narrowing (not closing) the race window against concurrent creators")

	ensureCmd.AddCommand(newEnsureTargetCmd(), newEnsurePolicyCmd(), newEnsureApplicationCmd())
	return ensureCmd
}

func newEnsureTargetCmd() *cobra.Command {
	targetCmd := &cobra.Command{
		Use:   "target",
		Short: "Ensure a target exists",
		RunE:  runEnsureTarget,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return checkRequiredFlags(cmd, []string{"name"})
		},
	}
	targetCmd.Flags().String("environment-id", "", "Environment ID for a new target")
	targetCmd.Flags().String("environment-type", "", "Environment type for a new target (e.g. direct, artifact)")
	targetCmd.Flags().StringSlice("tag", []string{}, "Tags for a new target (repeatable)")
	return targetCmd
}

func newEnsurePolicyCmd() *cobra.Command {
	policyCmd := &cobra.Command{
		Use:   "policy",
		Short: "Ensure a policy exists",
		RunE:  runEnsurePolicy,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return checkRequiredFlags(cmd, []string{"name"})
		},
	}
	policyCmd.Flags().String("environment-id", "", "Environment ID for a new policy")
	policyCmd.Flags().String("integration-id", "", "Integration ID for a new policy")
	policyCmd.Flags().StringSlice("scenario-id", []string{}, "Scenario IDs for a new policy (repeatable)")
	policyCmd.Flags().StringSlice("target-id", []string{}, "Target IDs for a new policy (repeatable)")
	policyCmd.Flags().String("policy-type", "", "Policy type (e.g. orchestration, dataLoad)")
	return policyCmd
}

func newEnsureApplicationCmd() *cobra.Command {
	applicationCmd := &cobra.Command{
		Use:   "application",
		Short: "Ensure an application exists",
		RunE:  runEnsureApplication,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return checkRequiredFlags(cmd, []string{"name"})
		},
	}
	applicationCmd.Flags().StringSlice("target-id", []string{}, "Target IDs grouped by a new application (repeatable)")
	applicationCmd.Flags().String("description", "", "Description for a new application")
	return applicationCmd
}

func runEnsureTarget(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("name")                       //nolint:errcheck
	environmentID, _ := cmd.Flags().GetString("environment-id")    //nolint:errcheck
	environmentType, _ := cmd.Flags().GetString("environment-type") //nolint:errcheck
	tags, _ := cmd.Flags().GetStringSlice("tag")                   //nolint:errcheck

	payload := zn.TargetPayload{
		Name:            name,
		EnvironmentID:   environmentID,
		EnvironmentType: environmentType,
		Tags:            tags,
	}
	return ensureResource(cmd, zn.Targets, name, payload)
}

func runEnsurePolicy(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("name")                     //nolint:errcheck
	environmentID, _ := cmd.Flags().GetString("environment-id")  //nolint:errcheck
	integrationID, _ := cmd.Flags().GetString("integration-id")  //nolint:errcheck
	scenarioIDs, _ := cmd.Flags().GetStringSlice("scenario-id")  //nolint:errcheck
	targetIDs, _ := cmd.Flags().GetStringSlice("target-id")      //nolint:errcheck
	policyType, _ := cmd.Flags().GetString("policy-type")        //nolint:errcheck

	payload := zn.PolicyPayload{
		Name:          name,
		EnvironmentID: environmentID,
		IntegrationID: integrationID,
		ScenarioIDs:   scenarioIDs,
		TargetIDs:     targetIDs,
		PolicyType:    policyType,
	}
	return ensureResource(cmd, zn.Policies, name, payload)
}

func runEnsureApplication(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("name")               //nolint:errcheck
	targetIDs, _ := cmd.Flags().GetStringSlice("target-id") //nolint:errcheck
	description, _ := cmd.Flags().GetString("description") //nolint:errcheck

	payload := zn.ApplicationPayload{
		Name:        name,
		TargetIDs:   targetIDs,
		Description: description,
	}
	return ensureResource(cmd, zn.Applications, name, payload)
}

// ensureResource is the shared upsert flow behind the per-kind subcommands.
func ensureResource(cmd *cobra.Command, kind zn.ResourceKind, name string, payload interface{}) error {
	ctx := metrics.WithMetrics(context.Background(), metricsNamespace)
	logger := log.NewLogger(ctx)

	config, err := getConfigFromFlags(cmd)
	if err != nil {
		return fmt.Errorf("error getting config from flags: %w", err)
	}
	client, err := newAPIClient(ctx, config, logger)
	if err != nil {
		return err
	}

	doubleCheck, _ := cmd.Flags().GetBool("double-check") //nolint:errcheck
	var id string
	if doubleCheck {
		id, err = client.EnsureDoubleCheck(ctx, kind, name, payload)
	} else {
		id, err = client.Ensure(ctx, kind, name, payload)
	}
	if err != nil {
		return fmt.Errorf("error ensuring %s: %w", kind.Path, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
