package cli

import (
	"github.com/spf13/cobra"

	"github.com/NPetersenDK/goprocam/cli/output"
	"github.com/NPetersenDK/goprocam/internal"
)

func PresetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "preset",
		Aliases: []string{"p"},
		Short:   "Preset catalog operations",
		Long:    "list the camera's preset catalog and load presets or preset groups by name.",
	}
	cmd.AddCommand(presetList(), presetLoad(), presetGroup())
	return cmd
}

func presetList() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Fetch and print the preset catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newControlClient(cmd)
			if err != nil {
				return err
			}
			catalog, err := client.GetPresets(cmd.Context())
			if err != nil {
				return err
			}
			printer := output.NewPrinter()
			for _, group := range catalog.Groups {
				printer.Section(group.Name)
				for _, preset := range group.Presets {
					printer.Info(preset.Name, map[string]any{"id": preset.ID})
				}
			}
			return nil
		},
	}
}

func presetLoad() *cobra.Command {
	var groupName string

	cmd := &cobra.Command{
		Use:   "load <preset-name>",
		Short: "Load a preset by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newControlClient(cmd)
			if err != nil {
				return err
			}
			if err := client.LoadPresetByName(cmd.Context(), groupName, args[0]); err != nil {
				return err
			}
			internal.Info("preset loaded", internal.Fields{
				internal.FieldGroup:  groupName,
				internal.FieldPreset: args[0],
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&groupName, "group", "", "Preset group to look in")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func presetGroup() *cobra.Command {
	return &cobra.Command{
		Use:   "group <group-name>",
		Short: "Switch to a preset group by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newControlClient(cmd)
			if err != nil {
				return err
			}
			if err := client.LoadPresetGroup(cmd.Context(), args[0]); err != nil {
				return err
			}
			internal.Info("preset group loaded", internal.Fields{
				internal.FieldGroup: args[0],
			})
			return nil
		},
	}
}
