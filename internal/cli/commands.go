package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/renameio/v2/maybe"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"chatdesk/internal/appconfig"
)

var nowFunc = time.Now

func ShowCmd(dbPath *string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unknown output format %q", output)
			}
			return withStore(cmd, *dbPath, true, func(store *Store) error {
				if output == "yaml" {
					return writeYAML(cmd.OutOrStdout(), store.Settings.Get())
				}
				return writeJSON(cmd.OutOrStdout(), store.Settings.Get())
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func SetCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <json>",
		Short: "Merge a partial JSON document into the settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, *dbPath, true, func(store *Store) error {
				cfg, err := store.Settings.Patch([]byte(args[0]))
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), cfg)
			})
		},
	}
}

func ResetCmd(dbPath *string) *cobra.Command {
	var purge bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore every setting to its default",
		Long: `Restore every setting to its default.

Reset also replaces a stored record that can no longer be loaded. With
--purge the record is deleted instead and the app writes fresh defaults on
its next start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, *dbPath, false, func(store *Store) error {
				if purge {
					if _, err := store.Settings.Purge(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Stored settings deleted")
					return nil
				}
				if _, err := store.Settings.Reset(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Settings reset")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "delete the stored record instead of writing defaults")
	return cmd
}

// ExportCmd writes the persisted envelope {"state": ..., "version": ...}.
func ExportCmd(dbPath *string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print or save the persisted settings envelope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, *dbPath, true, func(store *Store) error {
				state, version, err := store.Settings.Export()
				if err != nil {
					return err
				}
				envelope, err := wrapEnvelope(state, version)
				if err != nil {
					return err
				}
				if out == "" {
					fmt.Fprintln(cmd.OutOrStdout(), string(envelope))
					return nil
				}
				if err := writeFileAtomic(out, envelope); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Exported settings to", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the envelope to this file instead of stdout")
	return cmd
}

func ImportCmd(dbPath *string) *cobra.Command {
	var version float64
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an exported settings envelope, keeping the newer copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			state, v, err := unwrapEnvelope(data, version)
			if err != nil {
				return err
			}
			return withStore(cmd, *dbPath, false, func(store *Store) error {
				_, imported, err := store.Settings.Import(state, v)
				if err != nil {
					return err
				}
				if imported {
					fmt.Fprintln(cmd.OutOrStdout(), "Imported settings")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Kept local settings (newer)")
				}
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&version, "version", 0, "schema version of a bare state document")
	return cmd
}

// MigrateCmd runs the migration chain on a file without touching the database.
func MigrateCmd() *cobra.Command {
	var version float64
	cmd := &cobra.Command{
		Use:   "migrate <file>",
		Short: "Upgrade a stored settings document to the current schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			state, v, err := unwrapEnvelope(data, version)
			if err != nil {
				return err
			}
			migrated, applied, err := appconfig.Migrate(state, v, nowFunc())
			if err != nil {
				return err
			}
			for _, step := range applied {
				fmt.Fprintln(cmd.ErrOrStderr(), "applied", step)
			}
			envelope, err := wrapEnvelope(migrated, appconfig.CurrentVersion)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(envelope))
			return nil
		},
	}
	cmd.Flags().Float64Var(&version, "version", 0, "schema version of a bare state document")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func wrapEnvelope(state []byte, version float64) ([]byte, error) {
	out, err := sjson.SetRawBytes([]byte(`{}`), "state", state)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(out, "version", version)
}

// unwrapEnvelope accepts either an exported envelope or a bare state
// document. A non-zero flagVersion overrides the envelope version.
func unwrapEnvelope(data []byte, flagVersion float64) ([]byte, float64, error) {
	if !gjson.ValidBytes(data) {
		return nil, 0, fmt.Errorf("%w: input is not valid JSON", appconfig.ErrMalformedState)
	}
	doc := gjson.ParseBytes(data)
	state := []byte(strings.TrimSpace(string(data)))
	version := flagVersion
	if env := doc.Get("state"); env.Exists() && doc.Get("version").Exists() {
		state = []byte(env.Raw)
		if flagVersion == 0 {
			version = doc.Get("version").Float()
		}
	}
	return state, version, nil
}

// writeFileAtomic replaces path in one rename where the platform allows it,
// so an interrupted export never leaves a truncated file.
func writeFileAtomic(path string, data []byte) error {
	if err := maybe.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// writeYAML goes through JSON so the persisted field names are kept.
func writeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
