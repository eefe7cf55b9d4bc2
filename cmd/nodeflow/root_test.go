package main

import (
	"testing"

	"github.com/aretw0/nodeflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFlags(t *testing.T) {
	require.NoError(t, runCmd.ParseFlags([]string{"--iterations", "4", "--metrics-addr", ":9100", "--log-level", "debug"}))

	c := &config.Config{LogLevel: "info", OutputDir: "output"}
	applyFlags(runCmd, c)

	assert.Equal(t, 4, c.Iterations)
	assert.Equal(t, ":9100", c.MetricsAddr)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "output", c.OutputDir, "unset flags keep the environment value")
}

func TestApplyFlags_S3(t *testing.T) {
	require.NoError(t, historyCmd.ParseFlags([]string{
		"--s3-endpoint", "minio:9000",
		"--s3-region", "eu-west-1",
		"--s3-access-key", "ak",
		"--s3-secret-key", "sk",
		"--s3-use-ssl=false",
	}))

	c := &config.Config{S3: config.S3Config{Bucket: "from-env", UseSSL: true}}
	applyFlags(historyCmd, c)

	assert.Equal(t, config.S3Config{
		Endpoint:  "minio:9000",
		Region:    "eu-west-1",
		AccessKey: "ak",
		SecretKey: "sk",
		Bucket:    "from-env",
		UseSSL:    false,
	}, c.S3)
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{{"run"}, {"nodes"}, {"nodes", "describe"}, {"find"}, {"graph"}, {"history"}, {"version"}} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
