package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/sansu/internal/server"
)

var (
	serveAddr       string
	serveWriteRate  float64
	serveWriteBurst int
	serveOrigins    []string
)

func newServeCmd() *cobra.Command {
	def := server.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a shared attempt store over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", def.Addr, "listen address")
	cmd.Flags().Float64Var(&serveWriteRate, "write-rate", def.WriteRate, "attempt writes per second per client")
	cmd.Flags().IntVar(&serveWriteBurst, "write-burst", def.WriteBurst, "burst of attempt writes per client")
	cmd.Flags().StringSliceVar(&serveOrigins, "allow-origin", nil, "allowed CORS origin (repeatable)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	if storeDriver == "remote" || storeDriver == "http" {
		return fmt.Errorf("serve needs a database store, not %q", storeDriver)
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	applyFloatConfig(cmd, "write-rate", &serveWriteRate, fileCfg.Server.WriteRate)
	applyIntConfig(cmd, "write-burst", &serveWriteBurst, fileCfg.Server.WriteBurst)
	if !cmd.Flags().Changed("allow-origin") && len(fileCfg.Server.AllowOrigins) > 0 {
		serveOrigins = fileCfg.Server.AllowOrigins
	}

	log, err := newLogger(fileCfg, false)
	if err != nil {
		return err
	}
	defer syncLogger(log)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(st, log, server.Config{
		Addr:         serveAddr,
		WriteRate:    serveWriteRate,
		WriteBurst:   serveWriteBurst,
		AllowOrigins: serveOrigins,
	})
	logErrln("Listening on", serveAddr)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
