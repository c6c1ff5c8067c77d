package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"biomonitor/internal/analyzer"
	"biomonitor/internal/config"
	"biomonitor/internal/logger"
	"biomonitor/internal/service"

	"go.uber.org/zap"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: biomonitor <command> [args]

Commands:
  report [YYYY-MM-DD]   生成指定日期的健康报告（省略日期时取最新记录）
  analyze               对全量历史执行干预相关性分析
  import <file.xlsx>    导入 xlsx 日志文件
  init-db               初始化数据库表结构
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	command := os.Args[1]

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "biomonitor")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 3. 创建服务
	reportService, err := service.NewReportService(cfg, log)
	if err != nil {
		log.Fatal("Failed to create report service",
			zap.Error(err),
		)
	}
	defer reportService.Stop()

	// 4. 创建上下文（支持 Ctrl+C 中断）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("Received signal, cancelling",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	// 5. 执行命令
	if err := run(ctx, command, os.Args[2:], cfg, reportService, log); err != nil {
		log.Fatal("Command failed",
			zap.String("command", command),
			zap.Error(err),
		)
	}
}

// run 分发子命令
func run(ctx context.Context, command string, args []string, cfg *config.Config, svc *service.ReportService, log *zap.Logger) error {
	switch command {
	case "report":
		date := ""
		if len(args) > 0 {
			date = args[0]
		}
		result, err := svc.GenerateDailyReport(ctx, date)
		if err != nil {
			return err
		}
		log.Info("Report generated",
			zap.String("date", result.Date),
			zap.String("type", result.ReportType),
			zap.String("title", result.Title),
		)
		fmt.Println(result.Body)
		return nil

	case "analyze":
		result, err := svc.AnalyzeInterventions(ctx)
		if err != nil {
			return err
		}
		fmt.Println(analyzer.FormatReport(result))
		return nil

	case "import":
		if len(args) < 1 {
			return fmt.Errorf("import requires a file path")
		}
		saved, err := svc.ImportFile(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d records from %s\n", saved, args[0])
		return nil

	case "init-db":
		if err := svc.InitSchema(ctx); err != nil {
			return err
		}
		log.Info("Database schema initialized",
			zap.String("database", cfg.Database.Database),
		)
		return nil

	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}
