// @title Learning Aid 后端 API
// @version 1.0
// @description 面向缅甸语学习者的日语学习辅助服务。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"learning_aid_backend/internal/app"
	"learning_aid_backend/internal/config"
	"learning_aid_backend/pkg/database"
	"learning_aid_backend/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configDir    string
	forceMigrate bool
)

func main() {
	// .env 仅用于本地开发，不存在时忽略
	_ = godotenv.Load()

	rootCommand := &cobra.Command{
		Use:           "learning-aid",
		Short:         "Japanese study companion backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	rootCommand.PersistentFlags().StringVar(&configDir, "config", "configs", "directory containing config.yaml")

	rootCommand.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newImportCommand(),
	)

	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "learning-aid: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.InitLogger(cfg)
	return cfg, nil
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
	// 启动时强制执行数据库迁移（即使是 release 模式）
	cmd.Flags().BoolVar(&forceMigrate, "migrate", false, "run database migrations even in release mode")
	return cmd
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Log.Sync()

	cfg.ForceMigrate = forceMigrate

	application, err := app.NewApp(cfg)
	if err != nil {
		logger.Log.Error("Failed to start application", zap.Error(err))
		return err
	}
	application.ConfigPath = filepath.Join(configDir, "config.yaml")
	return application.Run()
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Log.Sync()

			db, _, err := app.Connect(cfg)
			if err != nil {
				return err
			}
			return database.Migrate(db)
		},
	}
}

func newImportCommand() *cobra.Command {
	var all bool
	var prefix string

	cmd := &cobra.Command{
		Use:   "import [bundle]",
		Short: "Import study content bundles (.yaml, .json, .xlsx) from storage",
		Args: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return fmt.Errorf("--all does not take a bundle name")
			}
			if !all && len(args) != 1 {
				return fmt.Errorf("expected exactly one bundle name, or --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Log.Sync()

			importer, err := app.NewImporter(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if !all {
				result, err := importer.Import(ctx, args[0])
				if err != nil {
					return err
				}
				printResult(cmd, result.Source, result.Imported, result.Skipped, result.Errors)
				return nil
			}

			results, err := importer.ImportAll(ctx, prefix)
			for _, result := range results {
				printResult(cmd, result.Source, result.Imported, result.Skipped, result.Errors)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "import every bundle in storage")
	cmd.Flags().StringVar(&prefix, "prefix", "", "only import bundles under this prefix (with --all)")
	return cmd
}

func printResult(cmd *cobra.Command, source string, imported, skipped int, errs []string) {
	cmd.Printf("%s: imported %d, skipped %d\n", source, imported, skipped)
	for _, e := range errs {
		cmd.Printf("  - %s\n", e)
	}
}
