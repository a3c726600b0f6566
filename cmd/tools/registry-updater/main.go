// cmd/tools/registry-updater/main.go
package main

import (
	"fmt"
	"os"

	"mergington-activities/internal/activities"
	"mergington-activities/pkg/registry"

	"github.com/spf13/cobra"
)

var registryPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "registry-updater",
		Short: "Maintain the activity catalog file the server is seeded from",
		Long: `Maintain the activity catalog file the server is seeded from.

Examples:
  registry-updater init
  registry-updater add --name "Robotics Club" --description "Build robots" --schedule "Wednesdays, 3:30 PM" --max 12
  registry-updater update --name "Robotics Club" --field maxParticipants --value 16
  registry-updater validate --path configs/activities.json`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&registryPath, "path", "p", "configs/activities.json",
		"path to the catalog file (.json, .yaml or .yml)")

	root.AddCommand(newInitCmd(), newAddCmd(), newUpdateCmd(), newValidateCmd())
	return root
}

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in Mergington activities as a new catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(registryPath); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", registryPath)
			}
			reg := registry.FromSeed(activities.DefaultSeed(), "1.0.0")
			if err := registry.SaveRegistry(reg, registryPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d activities to %s\n", len(reg.Activities), registryPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newAddCmd() *cobra.Command {
	var activity registry.Activity
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new activity to the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if activity.Name == "" || activity.MaxParticipants < 1 {
				return fmt.Errorf("--name and a positive --max are required")
			}
			if err := addActivity(activity); err != nil {
				return fmt.Errorf("adding activity: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added activity: %s\n", activity.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&activity.Name, "name", "", "activity name (e.g. Robotics Club)")
	cmd.Flags().StringVar(&activity.Description, "description", "", "description")
	cmd.Flags().StringVar(&activity.Schedule, "schedule", "", "meeting schedule")
	cmd.Flags().IntVar(&activity.MaxParticipants, "max", 0, "maximum number of participants")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var name, field, value string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update one field of an existing activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name == "" || field == "" || value == "" {
				return fmt.Errorf("--name, --field and --value are required")
			}
			if err := updateActivity(name, field, value); err != nil {
				return fmt.Errorf("updating activity: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", name, field, value)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "activity to update")
	cmd.Flags().StringVar(&field, "field", "", "description, schedule or maxParticipants")
	cmd.Flags().StringVar(&value, "value", "", "new value for the field")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the catalog against the schema and roster rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := validateRegistry()
			if err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", n)
			return nil
		},
	}
}

func addActivity(activity registry.Activity) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = registry.New("1.0.0")
	}

	if err := reg.Add(activity); err != nil {
		return err
	}
	if err := reg.Validate(); err != nil {
		return err
	}
	return registry.SaveRegistry(reg, registryPath)
}

func updateActivity(name, field, value string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Update(name, field, value); err != nil {
		return err
	}
	return registry.SaveRegistry(reg, registryPath)
}

func validateRegistry() (int, error) {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return 0, fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return 0, err
	}
	return len(reg.Activities), nil
}
