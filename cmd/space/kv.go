package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brizzai/space/internal/config"
	"github.com/brizzai/space/internal/logger"
	"github.com/brizzai/space/internal/storage"
	"github.com/brizzai/space/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// ErrKeyNotFound is returned by kv get for a missing key
var ErrKeyNotFound = errors.New("key not found")

func newKVCmd() *cobra.Command {
	kv := &cobra.Command{
		Use:   "kv",
		Short: "Read and write the key/value store",
	}
	kv.PersistentFlags().StringP("namespace", "n", "", "Namespace prefix, e.g. sessions")

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored at key",
		Args:  cobra.ExactArgs(1),
		RunE:  withStorage(runGet),
	}
	get.Flags().StringP("output", "o", outputJSON, "Output format (json|yaml)")

	set := &cobra.Command{
		Use:   "set <key> <json>",
		Short: "Store a JSON value at key",
		Args:  cobra.ExactArgs(2),
		RunE:  withStorage(runSet),
	}

	keys := &cobra.Command{
		Use:   "keys [prefix]",
		Short: "List keys, optionally below a prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE:  withStorage(runKeys),
	}

	rm := &cobra.Command{
		Use:     "rm <key>",
		Aliases: []string{"remove"},
		Short:   "Remove the value stored at key",
		Args:    cobra.ExactArgs(1),
		RunE:    withStorage(runRemove),
	}

	browse := &cobra.Command{
		Use:   "browse [prefix]",
		Short: "Browse keys interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  withStorage(runBrowse),
	}

	kv.AddCommand(get, set, keys, rm, browse)
	return kv
}

type storageFunc func(cmd *cobra.Command, args []string, s *storage.Storage) error

// withStorage opens the configured storage for the duration of one command
func withStorage(fn storageFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		// keep stdout for values unless asked otherwise
		logCfg := cfg.Logging
		if !cmd.Flags().Changed("logging.level") {
			logCfg.Level = "warn"
		}
		if err := logger.InitLogger(&logCfg); err != nil {
			return err
		}

		registry := storage.NewRegistry(cfg.Storage, logger.GetLogger(), nil)
		defer func() {
			err = errors.Join(err, registry.Close())
		}()

		namespace, _ := cmd.Flags().GetString("namespace")
		s, err := registry.Storage(cmd.Context(), namespace)
		if err != nil {
			return err
		}
		return fn(cmd, args, s)
	}
}

func runGet(cmd *cobra.Command, args []string, s *storage.Storage) error {
	var value any
	ok, err := s.GetItem(cmd.Context(), args[0], &value)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, args[0])
	}

	output, _ := cmd.Flags().GetString("output")
	var data []byte
	switch output {
	case outputJSON:
		data, err = json.MarshalIndent(value, "", "  ")
		data = append(data, '\n')
	case outputYAML:
		data, err = yaml.Marshal(value)
	default:
		return fmt.Errorf("unsupported output format %q", output)
	}
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runSet(cmd *cobra.Command, args []string, s *storage.Storage) error {
	raw := json.RawMessage(args[1])
	if !json.Valid(raw) {
		return fmt.Errorf("value for %s is not valid JSON", args[0])
	}
	if err := s.SetItem(cmd.Context(), args[0], raw); err != nil {
		return err
	}
	pterm.Success.WithWriter(cmd.ErrOrStderr()).Printfln("Stored %s", args[0])
	return nil
}

func runKeys(cmd *cobra.Command, args []string, s *storage.Storage) error {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}

	keys, err := s.GetKeys(cmd.Context(), prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), key); err != nil {
			return err
		}
	}
	pterm.Info.WithWriter(cmd.ErrOrStderr()).Printfln("%s keys", pterm.LightGreen(len(keys)))
	return nil
}

func runRemove(cmd *cobra.Command, args []string, s *storage.Storage) error {
	if err := s.RemoveItem(cmd.Context(), args[0]); err != nil {
		return err
	}
	pterm.Success.WithWriter(cmd.ErrOrStderr()).Printfln("Removed %s", args[0])
	return nil
}

func runBrowse(cmd *cobra.Command, args []string, s *storage.Storage) error {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}

	p := tea.NewProgram(tui.NewAppModel(cmd.Context(), s, prefix), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running browser: %w", err)
	}

	return reportBrowse(cmd, m)
}

// reportBrowse summarizes the model the browser finished with
func reportBrowse(cmd *cobra.Command, m tea.Model) error {
	var final tui.AppModel
	switch model := m.(type) {
	case tui.AppModel:
		final = model
	case *tui.AppModel:
		if model == nil {
			return errors.New("browser returned no model")
		}
		final = *model
	default:
		return fmt.Errorf("unexpected browser model %T", m)
	}

	if err := final.Err(); err != nil {
		return err
	}
	if final.IsFinished() {
		pterm.Info.WithWriter(cmd.ErrOrStderr()).Printfln("Removed %s keys", pterm.LightGreen(len(final.Removed())))
	}
	return nil
}
