package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func testContext(t *testing.T, level string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("log-level", level, "")
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestSetupLogger(t *testing.T) {
	t.Run("accepts known levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "INFO", "Debug"} {
			assert.NoError(t, setupLogger(testContext(t, level)), level)
		}
	})

	t.Run("rejects unknown levels", func(t *testing.T) {
		err := setupLogger(testContext(t, "verbose"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestCommandFlags(t *testing.T) {
	app := &cli.App{
		Name: "enrichit",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "enrichit.yaml"},
		},
		Commands: []*cli.Command{
			{
				Name: "history",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20},
				},
			},
		},
	}

	t.Run("config has a default", func(t *testing.T) {
		var configFlag *cli.StringFlag
		for _, f := range app.Flags {
			if sf, ok := f.(*cli.StringFlag); ok && sf.Name == "config" {
				configFlag = sf
				break
			}
		}
		require.NotNil(t, configFlag)
		assert.Equal(t, "enrichit.yaml", configFlag.Value)
	})

	t.Run("history limit has a default", func(t *testing.T) {
		cmd := app.Commands[0]
		var limitFlag *cli.IntFlag
		for _, f := range cmd.Flags {
			if lf, ok := f.(*cli.IntFlag); ok && lf.Name == "limit" {
				limitFlag = lf
				break
			}
		}
		require.NotNil(t, limitFlag)
		assert.Equal(t, 20, limitFlag.Value)
	})
}
