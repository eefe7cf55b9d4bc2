package main

import (
	"fmt"
	"os"

	"github.com/aretw0/nodeflow/internal/config"
	"github.com/spf13/cobra"
)

// cfg is loaded before every command and overridden by changed flags.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "nodeflow",
	Short: "nodeflow runs node-based image pipelines exported from a host runtime",
	Long: `nodeflow locates a host runtime installation, loads its plugin nodes,
and executes a fixed dataflow of node invocations once.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		applyFlags(cmd, loaded)
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("runtime-name", "", "Directory name of the host runtime to search for")
	f.String("extra-config", "", "File name of the extra model paths config")
	f.String("start-dir", "", "Directory the ancestor search starts from (default: working directory)")
	f.String("output-dir", "", "Output folder of the file artifact backend")
	f.String("artifact-backend", "", "Artifact backend: file, memory or s3")
	f.String("s3-endpoint", "", "S3 endpoint (host:port)")
	f.String("s3-bucket", "", "S3 bucket")
	f.String("s3-region", "", "S3 region")
	f.String("s3-access-key", "", "S3 access key (prefer NODEFLOW_S3_ACCESS_KEY)")
	f.String("s3-secret-key", "", "S3 secret key (prefer NODEFLOW_S3_SECRET_KEY)")
	f.Bool("s3-use-ssl", true, "Use TLS for the S3 endpoint")
	f.String("run-store", "", "Run store: memory, file or redis")
	f.String("run-store-dir", "", "Directory of the file run store")
	f.String("redis-url", "", "Redis URL of the redis run store")
	f.String("log-level", "", "Log level: debug, info, warn or error")
	f.String("log-format", "", "Log format: text, json or auto")
	f.String("log-file", "", "Also write logs to this rotated file")
	f.Bool("debug", false, "Log every step at debug level")
}

// applyFlags overrides environment settings with explicitly set flags.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	overrides := map[string]*string{
		"runtime-name":     &c.RuntimeName,
		"extra-config":     &c.ExtraConfigName,
		"start-dir":        &c.StartDir,
		"output-dir":       &c.OutputDir,
		"artifact-backend": &c.ArtifactBackend,
		"s3-endpoint":      &c.S3.Endpoint,
		"s3-bucket":        &c.S3.Bucket,
		"s3-region":        &c.S3.Region,
		"s3-access-key":    &c.S3.AccessKey,
		"s3-secret-key":    &c.S3.SecretKey,
		"run-store":        &c.RunStore,
		"run-store-dir":    &c.RunStoreDir,
		"redis-url":        &c.RedisURL,
		"log-level":        &c.LogLevel,
		"log-format":       &c.LogFormat,
		"log-file":         &c.LogFile,
		"metrics-addr":     &c.MetricsAddr,
	}
	for name, dst := range overrides {
		flag := cmd.Flags().Lookup(name)
		if flag != nil && flag.Changed {
			*dst = flag.Value.String()
		}
	}
	if ssl, err := cmd.Flags().GetBool("s3-use-ssl"); err == nil && cmd.Flags().Changed("s3-use-ssl") {
		c.S3.UseSSL = ssl
	}
	if n, err := cmd.Flags().GetInt("iterations"); err == nil && cmd.Flags().Changed("iterations") {
		c.Iterations = n
	}
}
