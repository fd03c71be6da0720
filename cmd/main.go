package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aot"
	"aot/internal/gen"
	"aot/pkg"

	"github.com/spf13/cobra"
)

const verifyCacheTTL = 7 * 24 * time.Hour

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "aot",
		Short:         "Specialize an application ahead of time",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newGenerateCommand())
	return root
}

func newGenerateCommand() *cobra.Command {
	var configFile, compiler string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate, verify and write the optimized package",
		RunE: func(cmd *cobra.Command, _ []string) error {
			aot.Logger = aot.InitLogger()
			if err := generate(cmd.Context(), configFile, compiler); err != nil {
				aot.Logger.Error().Err(err).Msg("AOT generation failed")
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "aot.env", "properties file holding the AOT_* keys")
	cmd.Flags().StringVar(&compiler, "compiler", "go", "verification compiler: go or syntax")
	return cmd
}

func newCompiler(name string) (gen.Compiler, error) {
	switch name {
	case "go":
		return gen.GoToolchain{}, nil
	case "syntax":
		return gen.SyntaxChecker{}, nil
	}
	return nil, fmt.Errorf("unknown compiler %q", name)
}

func generate(ctx context.Context, configFile, compilerName string) error {
	cfg, err := aot.LoadConfig(configFile)
	if err != nil {
		return err
	}
	compiler, err := newCompiler(compilerName)
	if err != nil {
		return err
	}

	options := []gen.RunnerOption{
		gen.WithLogger(aot.Logger),
		gen.WithCompiler(compiler),
		gen.WithProgress(cfg.NatsURL),
	}
	if cfg.RedisConfig.Host != "" {
		client, err := aot.ConnectRedis(ctx, cfg)
		if err != nil {
			aot.Logger.Warn().Err(err).Msg("verification cache disabled")
		} else {
			defer client.Close()
			options = append(options, gen.WithVerifyCache(pkg.NewRedisStore(client, "aot:verified:", verifyCacheTTL)))
		}
	}

	runner, err := gen.NewRunner(cfg.Options(), options...)
	if err != nil {
		return err
	}
	result, err := runner.Execute(ctx)
	if err != nil {
		return err
	}

	aot.Logger.Info().
		Str("run", result.RunID).
		Int("files", len(result.Files)).
		Strs("excluded", result.Context.ExcludedResources()).
		Msgf("Generated package %s in %s", cfg.GeneratedPackage, cfg.OutputDirectory)
	return nil
}
