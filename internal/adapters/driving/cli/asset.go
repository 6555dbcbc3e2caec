package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

var (
	assetSource     string
	assetSourceURL  string
	assetLicense    string
	assetDefault    bool
	assetHide       bool
	assetUploader   int64
	assetExtensions []string
	assetJSON       bool
)

var assetCmd = &cobra.Command{
	Use:   "asset",
	Short: "Manage media assets",
}

var assetAddCmd = &cobra.Command{
	Use:   "add [location]",
	Short: "Register an uploaded file",
	Long: `Registers an uploaded file with its attribution fields.
The location is the URL or upload path the file is served from.`,
	Args: cobra.ExactArgs(1),
	RunE: runAssetAdd,
}

var assetShowCmd = &cobra.Command{
	Use:   "show [id|location]",
	Short: "Show an asset",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssetShow,
}

var assetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assets",
	RunE:  runAssetList,
}

var assetSetCmd = &cobra.Command{
	Use:   "set [id] [key] [value]",
	Short: "Update one attribution field",
	Long: `Updates one attribution field of an asset.

Keys:
  source_text               attribution line
  source_url                link for the attribution line
  license                   license name from the license table
  uses_default_attribution  true to credit the site default
  hide_attribution          true to hide the caption`,
	Args: cobra.ExactArgs(3),
	RunE: runAssetSet,
}

var assetDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an asset and its usage record",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssetDelete,
}

func init() {
	assetAddCmd.Flags().StringVar(&assetSource, "source", "", "attribution text")
	assetAddCmd.Flags().StringVar(&assetSourceURL, "source-url", "", "attribution link")
	assetAddCmd.Flags().StringVar(&assetLicense, "license", "", "license name")
	assetAddCmd.Flags().BoolVar(&assetDefault, "default", false, "credit with the default attribution")
	assetAddCmd.Flags().BoolVar(&assetHide, "hide", false, "hide the caption")
	assetAddCmd.Flags().Int64Var(&assetUploader, "uploader", 0, "uploading user id")
	assetListCmd.Flags().StringSliceVar(&assetExtensions, "ext", nil, "only these extensions")
	assetListCmd.Flags().BoolVar(&assetJSON, "json", false, "output as JSON")
	assetShowCmd.Flags().BoolVar(&assetJSON, "json", false, "output as JSON")

	assetCmd.AddCommand(assetAddCmd, assetShowCmd, assetListCmd, assetSetCmd, assetDeleteCmd)
	rootCmd.AddCommand(assetCmd)
}

func runAssetAdd(cmd *cobra.Command, args []string) error {
	if assetService == nil {
		return fmt.Errorf("asset %w", errNotConfigured)
	}
	asset := &domain.Asset{
		Location:               args[0],
		SourceText:             assetSource,
		SourceURL:              assetSourceURL,
		License:                assetLicense,
		UsesDefaultAttribution: assetDefault,
		HideAttribution:        assetHide,
		UploaderID:             assetUploader,
	}
	if err := assetService.Save(commandContext(cmd), asset); err != nil {
		return err
	}
	cmd.Printf("Added asset %d: %s\n", asset.ID, asset.Location)
	return nil
}

func runAssetShow(cmd *cobra.Command, args []string) error {
	if assetService == nil {
		return fmt.Errorf("asset %w", errNotConfigured)
	}
	ctx := commandContext(cmd)

	var asset *domain.Asset
	var err error
	if id, perr := strconv.ParseInt(args[0], 10, 64); perr == nil {
		asset, err = assetService.Get(ctx, id)
	} else {
		asset, err = assetService.Lookup(ctx, args[0])
	}
	if err != nil {
		return err
	}

	if assetJSON {
		return printJSON(cmd, asset)
	}
	printAsset(cmd, asset)
	return nil
}

func runAssetList(cmd *cobra.Command, _ []string) error {
	if assetService == nil {
		return fmt.Errorf("asset %w", errNotConfigured)
	}
	assets, err := assetService.List(commandContext(cmd), domain.AssetQuery{Extensions: assetExtensions})
	if err != nil {
		return err
	}
	if assetJSON {
		return printJSON(cmd, assets)
	}
	if len(assets) == 0 {
		cmd.Println("No assets.")
		return nil
	}
	for i := range assets {
		credit := assets[i].SourceText
		if assets[i].UsesDefaultAttribution {
			credit = "(default)"
		}
		cmd.Printf("  [%d] %s %s\n", assets[i].ID, assets[i].Location, mutedStyle.Render(credit))
	}
	return nil
}

func runAssetSet(cmd *cobra.Command, args []string) error {
	if assetService == nil {
		return fmt.Errorf("asset %w", errNotConfigured)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := assetService.SetAttribute(commandContext(cmd), id, args[1], args[2]); err != nil {
		return err
	}
	cmd.Printf("Set %s on asset %d\n", args[1], id)
	return nil
}

func runAssetDelete(cmd *cobra.Command, args []string) error {
	if assetService == nil {
		return fmt.Errorf("asset %w", errNotConfigured)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := assetService.Delete(commandContext(cmd), id); err != nil {
		return err
	}
	cmd.Printf("Deleted asset %d\n", id)
	return nil
}

func printAsset(cmd *cobra.Command, a *domain.Asset) {
	cmd.Println(title(fmt.Sprintf("Asset %d", a.ID)))
	cmd.Printf("  Location:  %s\n", a.Location)
	cmd.Printf("  Source:    %s\n", a.SourceText)
	if a.SourceURL != "" {
		cmd.Printf("  Link:      %s\n", a.SourceURL)
	}
	if a.License != "" {
		cmd.Printf("  License:   %s\n", a.License)
	}
	cmd.Printf("  Default:   %t\n", a.UsesDefaultAttribution)
	cmd.Printf("  Hidden:    %t\n", a.HideAttribution)
}

// parseID parses a positive numeric identifier.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: %w", s, domain.ErrInvalidInput)
	}
	return id, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
