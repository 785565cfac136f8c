package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/category"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/models"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/output"
	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/utils"
)

var (
	overrideField  string
	renameCategory string
	listOverrides  bool
)

// fieldAliases are the short names accepted by --field.
var fieldAliases = map[string]string{
	"app":  models.FieldAppName,
	"page": models.FieldBrowserPageTitle,
	"dir":  models.FieldTerminalDirectory,
	"file": models.FieldEditorFilename,
	"tmux": models.FieldTmuxWindowName,
}

var renameCmd = &cobra.Command{
	Use:   "rename <original> <new-name>",
	Short: "Rename an app or sub-entry, past and future",
	Long: `Rename an app, page title, terminal directory, editor file or tmux
window. Existing sessions are rewritten and new sessions pick the name up
when they are saved.

Renaming an app that was itself renamed before keeps the whole chain
pointing at the newest name.`,
	Example: `  hustle-tracker rename code "VS Code" --category Development
  hustle-tracker rename Inbox Email --field page`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return renameRun(args[0], args[1])
	},
}

var categorizeCmd = &cobra.Command{
	Use:   "categorize <value> <category>",
	Short: "Assign a category to an app or sub-entry",
	Example: `  hustle-tracker categorize slack "Deep Work"
  hustle-tracker categorize ~/src/api Client --field dir`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return categorizeRun(args[0], args[1])
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List built-in and custom categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return categoriesRun()
	},
}

func init() {
	for _, c := range []*cobra.Command{renameCmd, categorizeCmd} {
		c.Flags().StringVarP(&overrideField, "field", "f", models.FieldAppName,
			"Field to override: app, page, dir, file, tmux (or the full column name)")
	}
	renameCmd.Flags().StringVarP(&renameCategory, "category", "c", "", "Also set the category (apps only)")
	categoriesCmd.Flags().BoolVar(&listOverrides, "overrides", false, "Also list every stored rename and category")

	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(categorizeCmd)
	rootCmd.AddCommand(categoriesCmd)
}

// resolveField maps a --field value to an override field type.
func resolveField(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if field, ok := fieldAliases[name]; ok {
		return field, nil
	}
	if models.IsOverrideField(name) {
		return name, nil
	}
	return "", errors.Errorf("unknown field %q (use: app, page, dir, file, tmux)", name)
}

func renameRun(original, renamed string) error {
	field, err := resolveField(overrideField)
	if err != nil {
		return err
	}
	if renameCategory != "" && field != models.FieldAppName {
		return errors.New("--category only applies to apps; use 'categorize' for sub-entries")
	}

	repo, err := getRepo()
	if err != nil {
		return err
	}

	ctx := context.Background()
	var n int64
	if field == models.FieldAppName {
		n, err = repo.RenameApp(ctx, original, renamed, renameCategory)
	} else {
		n, err = repo.RenameField(ctx, field, original, renamed)
	}
	if err != nil {
		return err
	}

	ui.Success("Renamed %s %q to %q (%d sessions updated)", field, original, renamed, n)
	if renameCategory != "" {
		ui.Info("Category: %s", output.CategoryColor(renameCategory))
	}
	return nil
}

func categorizeRun(value, label string) error {
	field, err := resolveField(overrideField)
	if err != nil {
		return err
	}

	repo, err := getRepo()
	if err != nil {
		return err
	}

	n, err := repo.CategorizeField(context.Background(), field, value, label)
	if err != nil {
		return err
	}

	ui.Success("Set category of %s %q to %s (%d sessions updated)", field, value, output.CategoryColor(label), n)
	if !category.IsBuiltin(label) {
		ui.VerboseLog("%q is a custom category", label)
	}
	return nil
}

func categoriesRun() error {
	repo, err := getRepo()
	if err != nil {
		return err
	}
	ctx := context.Background()

	custom, err := repo.GetCustomCategories(ctx)
	if err != nil {
		return err
	}

	w := ui.Out
	fmt.Fprintln(w, output.Bold("Built-in"))
	for _, label := range category.Labels() {
		fmt.Fprintf(w, "  %s\n", output.CategoryColor(label))
	}

	fmt.Fprintln(w, output.Bold("Custom"))
	if len(custom) == 0 {
		fmt.Fprintln(w, output.Faint("  none"))
	}
	for _, label := range custom {
		fmt.Fprintf(w, "  %s\n", label)
	}

	if !listOverrides {
		return nil
	}

	overrides, err := repo.ListOverrides(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	if len(overrides) == 0 {
		ui.Info("No overrides stored")
		return nil
	}

	table := ui.Table([]string{"Field", "Original", "Renamed", "Category"})
	for _, o := range overrides {
		_ = table.Append([]string{
			o.FieldType,
			utils.Truncate(o.OriginalValue, 40),
			utils.Truncate(models.Deref(o.RenamedValue), 40),
			output.CategoryColor(models.Deref(o.Category)),
		})
	}
	_ = table.Render()
	return nil
}
