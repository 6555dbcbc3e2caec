package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change extraction, overlay, batch, usage scan and fetch settings.

Settings are stored in ~/.sourcemark/config.toml.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Changes one setting. Lists are comma separated and durations use Go
syntax (30s, 24h).

Examples:
  sourcemark settings set overlay.position bottom-right
  sourcemark settings set extraction.extensions jpg,png,webp
  sourcemark settings set usage.max_age 168h
  sourcemark settings set "licenses.CC BY 4.0" https://creativecommons.org/licenses/by/4.0/
  sourcemark settings set scheduler.content_index.enabled true`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Show default settings",
	RunE:  runSettingsDefaults,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsDefaultsCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	printSettings(cmd, settings)

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("%s %v\n", warningStyle.Render("Warning:"), err)
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runSettingsDefaults(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	defaults := settingsService.GetDefaults()
	printSettings(cmd, &defaults)
	return nil
}

func printSettings(cmd *cobra.Command, s *domain.Settings) {
	cmd.Println(title("[Extraction]"))
	cmd.Printf("  Extensions:       %s\n", strings.Join(s.Extraction.Extensions, ", "))
	cmd.Printf("  Class prefixes:   %s\n", strings.Join(s.Extraction.ClassPrefixes, ", "))
	cmd.Printf("  Data attributes:  %s\n", strings.Join(s.Extraction.DataAttributes, ", "))
	cmd.Printf("  Fallbacks:        %s\n", strings.Join(s.Extraction.FallbackAttributes, ", "))
	cmd.Printf("  List-all marker:  %s\n", s.Extraction.ListAllMarker)
	cmd.Println()

	cmd.Println(title("[Overlay]"))
	cmd.Printf("  Enabled:          %s\n", yesNo(s.Overlay.Enabled))
	cmd.Printf("  Whole page:       %s\n", yesNo(s.Overlay.WholePage))
	cmd.Printf("  Inline styles:    %s\n", yesNo(s.Overlay.InlineStyles))
	cmd.Printf("  Style blocks:     %s\n", yesNo(s.Overlay.StyleBlocks))
	cmd.Printf("  Label:            %s\n", s.Overlay.Label)
	cmd.Printf("  Position:         %s\n", s.Overlay.Position.Description())
	cmd.Printf("  Link source:      %s\n", yesNo(s.Overlay.LinkSource))
	cmd.Printf("  Show license:     %s\n", yesNo(s.Overlay.ShowLicense))
	cmd.Printf("  Default source:   %s\n", s.Overlay.DefaultSource)
	cmd.Printf("  Exclusion class:  %s\n", s.Overlay.ExclusionClass)
	cmd.Printf("  Stop marker:      %s\n", s.Overlay.StopMarker)
	cmd.Println()

	cmd.Println(title("[Batch]"))
	cmd.Printf("  Size:             %d (%d-%d)\n", s.Batch.Size, s.Batch.Min, s.Batch.Max)
	cmd.Printf("  Target time:      %s\n", s.Batch.TargetTime)
	cmd.Println()

	cmd.Println(title("[Usage]"))
	cmd.Printf("  Max age:          %s\n", s.Usage.MaxAge)
	cmd.Printf("  Extensions:       %s\n", orAll(s.Usage.Extensions))
	cmd.Printf("  Meta denylist:    %s\n", strings.Join(s.Usage.AttributeDenylist, ", "))
	cmd.Printf("  Option denylist:  %s\n", strings.Join(s.Usage.SettingsDenylist, ", "))
	cmd.Printf("  User denylist:    %s\n", strings.Join(s.Usage.UserAttributeDenylist, ", "))
	cmd.Println()

	cmd.Println(title("[Fetch]"))
	cmd.Printf("  Timeout:          %s\n", s.Fetch.Timeout)
	cmd.Printf("  Rate:             %.1f/s\n", s.Fetch.RequestsPerSecond)
	cmd.Printf("  User agent:       %s\n", s.Fetch.UserAgent)
	cmd.Println()

	cmd.Println(title("[Licenses]"))
	for _, name := range s.LicenseNames() {
		if url := s.Licenses[name]; url != "" {
			cmd.Printf("  %s %s\n", name, mutedStyle.Render(url))
			continue
		}
		cmd.Printf("  %s\n", name)
	}
	cmd.Println()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orAll(list []string) string {
	if len(list) == 0 {
		return "(all)"
	}
	return strings.Join(list, ", ")
}
