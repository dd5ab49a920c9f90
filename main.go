package main

import (
	"fmt"
	"os"
	"strings"

	"datalens/config"
	"datalens/database"
	"datalens/middleware"
	"datalens/router"

	"github.com/spf13/cobra"
)

// @title Datalens 数据分析 API
// @version 1.0
// @description 上传数据样本，由推理服务生成结构化商业分析报告；支持 Google 登录与报告历史
// @host localhost:3000
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// version 构建时通过 -ldflags 注入
var version = "dev"

var (
	configFile string
	port       string
)

var rootCmd = &cobra.Command{
	Use:           "datalens",
	Short:         "数据分析后端服务",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "迁移数据库表结构",
	RunE: func(_ *cobra.Command, _ []string) error {
		if _, err := config.LoadConfig(configFile); err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		if _, err := database.Default.Get(); err != nil {
			return fmt.Errorf("数据库迁移失败: %w", err)
		}
		config.Logger().Info("数据库迁移完成")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("datalens %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "外部配置文件路径（可选）")
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVarP(&port, "port", "p", "", "监听端口，如: 8080 或 :8080")
	}
	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	log := config.Logger()

	// 命令行参数覆盖端口配置
	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
		log.Infof("命令行指定端口: %s", port)
	}

	config.PrintConfig()

	// 数据库不可用时仍然启动，只有报告历史与登录受影响
	if _, err := database.Default.Get(); err != nil {
		log.WithError(err).Warn("数据库不可用，报告历史与登录功能将返回错误")
	}

	middleware.InitJWT(cfg)

	r := router.SetupRouter(cfg, router.NewDependencies(cfg))

	log.Info("==========================================")
	log.Info("  Datalens 已启动")
	log.Info("==========================================")
	log.Infof("  API接口:  http://localhost%s/api/", cfg.Server.Port)
	log.Infof("  Swagger:  http://localhost%s/swagger/index.html", cfg.Server.Port)
	log.Info("==========================================")

	return r.Run(cfg.Server.Port)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
