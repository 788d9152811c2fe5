package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	logger    *zap.Logger
	appConfig *Config
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "essmon",
	Short: "Victron ESS 系統監控工具",
	Long: `透過 Modbus TCP 監控 Victron GX 閘道器後的 ESS 儲能系統。
持續輪詢電網電錶、電池 BMS、逆變器與太陽能充電器，
輸出終端狀態顯示與 TSV 數據記錄。`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 初始化日誌
		var err error
		logger, err = initLogger()
		if err != nil {
			return fmt.Errorf("初始化日誌失敗: %w", err)
		}

		// 載入配置 (除了 version 和 help 命令)
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "generate" {
			appConfig, err = LoadConfig(cfgFile)
			if err != nil {
				// 配置載入失敗時使用預設值
				appConfig = DefaultConfig()
				if cfgFile != "" {
					logger.Warn("載入配置檔失敗，使用預設配置", zap.Error(err))
				}
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// startCmd 啟動命令
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "啟動監控",
	Long:  "連線到 GX 閘道器並開始持續輪詢。",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 覆蓋 CLI 參數
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			appConfig.GX.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			appConfig.GX.Port = port
		}
		if interval, _ := cmd.Flags().GetDuration("interval"); interval > 0 {
			appConfig.Poll.Interval = interval
		}
		if noDisplay, _ := cmd.Flags().GetBool("no-display"); noDisplay {
			appConfig.Display.Enabled = false
		}

		logger.Info("啟動 ESS 監控",
			zap.String("host", appConfig.GX.Host),
			zap.Int("port", appConfig.GX.Port),
			zap.Duration("interval", appConfig.Poll.Interval),
		)

		monitor := NewMonitor(appConfig, os.Stdout, logger)

		// 設置優雅關閉
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		go func() {
			sig := <-sigChan
			logger.Info("收到關閉信號", zap.String("signal", sig.String()))
			cancel()
		}()

		// 啟動指標收集器
		if appConfig.Metrics.Enabled {
			metrics := NewMetricsCollector(monitor, logger)
			if err := metrics.Start(appConfig.Metrics.Endpoint, appConfig.Metrics.Port); err != nil {
				logger.Warn("啟動指標伺服器失敗", zap.Error(err))
			}
		}

		if err := monitor.Start(ctx); err != nil {
			return fmt.Errorf("監控器執行失敗: %w", err)
		}

		return nil
	},
}

// readCmd 單次讀取命令
var readCmd = &cobra.Command{
	Use:   "read [address] [quantity]",
	Short: "讀取暫存器",
	Long:  "讀取指定位址的保持或輸入暫存器，以十進位與十六進位顯示。",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		address, err := parseUint16(args[0])
		if err != nil {
			return fmt.Errorf("無效的位址: %w", err)
		}

		quantity := uint16(1)
		if len(args) > 1 {
			quantity, err = parseUint16(args[1])
			if err != nil {
				return fmt.Errorf("無效的數量: %w", err)
			}
		}

		unitID, _ := cmd.Flags().GetUint8("unit")
		input, _ := cmd.Flags().GetBool("input")

		client, err := dialGX()
		if err != nil {
			return err
		}
		defer client.Close()

		var values []uint16
		if input {
			values, err = client.ReadInputRegisters(unitID, address, quantity)
		} else {
			values, err = client.ReadHoldingRegisters(unitID, address, quantity)
		}
		if err != nil {
			return fmt.Errorf("讀取失敗: %w", err)
		}

		for i, v := range values {
			fmt.Printf("%5d: %6d  0x%04X  (int16 %d)\n", address+uint16(i), v, v, int16(v))
		}
		return nil
	},
}

// writeCmd 單次寫入命令
var writeCmd = &cobra.Command{
	Use:   "write [address] [value...]",
	Short: "寫入暫存器",
	Long:  "寫入單個或連續多個保持暫存器。",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		address, err := parseUint16(args[0])
		if err != nil {
			return fmt.Errorf("無效的位址: %w", err)
		}

		values := make([]uint16, 0, len(args)-1)
		for _, arg := range args[1:] {
			v, err := parseUint16(arg)
			if err != nil {
				return fmt.Errorf("無效的數值 %q: %w", arg, err)
			}
			values = append(values, v)
		}

		unitID, _ := cmd.Flags().GetUint8("unit")

		client, err := dialGX()
		if err != nil {
			return err
		}
		defer client.Close()

		if len(values) == 1 {
			err = client.WriteSingleRegister(unitID, address, values[0])
		} else {
			err = client.WriteMultipleRegisters(unitID, address, values)
		}
		if err != nil {
			return fmt.Errorf("寫入失敗: %w", err)
		}

		fmt.Printf("已寫入 %d 個暫存器，起始位址 %d\n", len(values), address)
		return nil
	},
}

// devicesCmd 裝置列表命令
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "列出配置的裝置",
	Long:  "顯示配置中所有裝置及其 Unit ID。",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("已配置的裝置:")
		fmt.Printf("  %-12s unit %d\n", "system", appConfig.Devices.System)
		fmt.Printf("  %-12s unit %d\n", "inverter", appConfig.Devices.Inverter)
		fmt.Printf("  %-12s unit %d\n", "battery", appConfig.Devices.Battery)
		fmt.Printf("  %-12s unit %d\n", "grid", appConfig.Devices.Grid)
		for _, spec := range appConfig.Devices.MPPTs {
			fmt.Printf("  %-12s unit %d\n", "mppt "+spec.Name, spec.UnitID)
		}
	},
}

// configCmd 配置命令組
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "配置管理命令",
	Long:  "管理配置檔。",
}

// configValidateCmd 驗證配置
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "驗證配置檔",
	Long:  "驗證指定的配置檔是否有效。",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("配置驗證失敗: %w", err)
		}

		fmt.Println("配置驗證通過")
		fmt.Printf("  Host: %s:%d\n", cfg.GX.Host, cfg.GX.Port)
		fmt.Printf("  Interval: %s\n", cfg.Poll.Interval)
		fmt.Printf("  TSV: %v (%s)\n", cfg.TSV.Enabled, cfg.TSV.Path)
		fmt.Printf("  MPPTs: %d\n", len(cfg.Devices.MPPTs))
		return nil
	},
}

// configGenerateCmd 生成配置
var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "生成範例配置",
	Long:  "生成範例配置檔。",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = "config.json"
		}

		cfg := DefaultConfig()
		if err := cfg.SaveConfig(output); err != nil {
			return fmt.Errorf("生成配置失敗: %w", err)
		}

		fmt.Printf("範例配置已生成: %s\n", output)
		return nil
	},
}

// versionCmd 版本命令
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "顯示版本資訊",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("essmon version %s\n", Version)
		fmt.Printf("  Build: %s\n", BuildTime)
		fmt.Printf("  Commit: %s\n", GitCommit)
	},
}

func init() {
	// 全域 flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置檔路徑")

	// start 命令 flags
	startCmd.Flags().String("host", "", "GX 主機位址")
	startCmd.Flags().IntP("port", "p", 0, "Modbus TCP 埠號")
	startCmd.Flags().DurationP("interval", "i", 0, "輪詢間隔")
	startCmd.Flags().Bool("no-display", false, "停用終端狀態顯示")

	// read 命令 flags
	readCmd.Flags().Uint8P("unit", "u", 100, "裝置 Unit ID")
	readCmd.Flags().Bool("input", false, "讀取輸入暫存器而非保持暫存器")

	// write 命令 flags
	writeCmd.Flags().Uint8P("unit", "u", 100, "裝置 Unit ID")

	// config 命令 flags
	configGenerateCmd.Flags().StringP("output", "o", "config.json", "輸出檔案路徑")

	// 組裝命令樹
	configCmd.AddCommand(configValidateCmd, configGenerateCmd)

	rootCmd.AddCommand(
		startCmd,
		readCmd,
		writeCmd,
		devicesCmd,
		configCmd,
		versionCmd,
	)
}

// dialGX 建立一次性的 Client 連線，供 read/write 命令使用
func dialGX() (*Client, error) {
	client := NewClient(appConfig.GX.Host, appConfig.GX.Port, appConfig.GX.ConnectTimeout,
		WithReadTimeout(appConfig.GX.ReadTimeout),
		WithWriteTimeout(appConfig.GX.WriteTimeout),
	)

	ctx, cancel := context.WithTimeout(context.Background(), appConfig.GX.ConnectTimeout)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("連線 %s:%d 失敗: %w", appConfig.GX.Host, appConfig.GX.Port, err)
	}

	return client, nil
}

func parseUint16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

func initLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// Execute 執行 CLI
func Execute() error {
	return rootCmd.Execute()
}
