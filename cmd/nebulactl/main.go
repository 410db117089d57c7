// nebulactl — консольный клиент шаблонов Nebulahunt: проверка файлов
// импорта без сети, импорт, выгрузка и просмотр списков через admin API.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"nebulahunt-admin/internal/apiclient"
	"nebulahunt-admin/internal/editor"
)

type options struct {
	backend      string
	accessToken  string
	refreshToken string
	timeout      time.Duration
	verbose      bool
}

// tokens — токены из флагов; обновлённые после refresh живут до конца команды.
type tokens struct {
	t apiclient.Tokens
}

func (s *tokens) Tokens() apiclient.Tokens { return s.t }

func (s *tokens) SetTokens(_ context.Context, t apiclient.Tokens) error {
	s.t = t
	return nil
}

func (s *tokens) Clear(context.Context) error {
	s.t = apiclient.Tokens{}
	return nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "nebulactl",
		Short: "Manage Nebulahunt game templates",
		Long: `Manage Nebulahunt game templates from the command line.

Available subcommands:
  validate - Check an import file offline
  import   - Import templates from a JSON file
  export   - Download templates as JSON
  list     - Print templates of an entity`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.backend, "backend", os.Getenv("BACKEND_URL"), "game backend base URL")
	root.PersistentFlags().StringVar(&opts.accessToken, "token", os.Getenv("NEBULA_ADMIN_TOKEN"), "admin access token")
	root.PersistentFlags().StringVar(&opts.refreshToken, "refresh-token", os.Getenv("NEBULA_ADMIN_REFRESH_TOKEN"), "admin refresh token")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", apiclient.DefaultTimeout, "request timeout")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		newValidateCmd(),
		newImportCmd(opts),
		newExportCmd(opts),
		newListCmd(opts),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (o *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// workflow собирает редактор сущности поверх admin API.
func (o *options) workflow(cmd *cobra.Command, entity string) (editor.Workflow, context.Context, error) {
	f, err := editor.Lookup(entity)
	if err != nil {
		return nil, nil, err
	}
	if o.backend == "" {
		return nil, nil, fmt.Errorf("backend URL is required (--backend or BACKEND_URL)")
	}

	log := o.logger(cmd.ErrOrStderr())
	client := apiclient.New(o.backend, o.timeout, log)
	ctx := apiclient.WithTokenSource(cmd.Context(), &tokens{t: apiclient.Tokens{
		Access:  o.accessToken,
		Refresh: o.refreshToken,
	}})
	return f.New(client, log, editor.Settings{}), ctx, nil
}
