package main

import (
	"flag"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/tkoide/corpora/core"
)

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: tc.input,
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		testCases := []string{
			"DEBUG",
			"Info",
			"WaRn",
			"ERROR",
		}

		for _, tc := range testCases {
			t.Run(tc, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}

		err := app.Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestExcerpt(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "hello world", excerpt("hello world", 20))
	})

	t.Run("long text truncated", func(t *testing.T) {
		got := excerpt("aaaaaaaaaa", 5)
		assert.Equal(t, "aaaaa…", got)
	})

	t.Run("newlines flattened", func(t *testing.T) {
		assert.Equal(t, "a b", excerpt("a\nb", 10))
	})

	t.Run("rune-aware truncation", func(t *testing.T) {
		got := excerpt("ああああああ", 3)
		assert.Equal(t, "あああ…", got)
	})
}

func TestResumeModel(t *testing.T) {
	run := &core.EmbeddingRun{Id: core.ID(3), Model: "embeddinggemma", Dimension: 4}

	t.Run("flag omitted uses persisted model", func(t *testing.T) {
		model, err := resumeModel(run, "")
		require.NoError(t, err)
		assert.Equal(t, "embeddinggemma", model)
	})

	t.Run("matching flag is accepted", func(t *testing.T) {
		model, err := resumeModel(run, "embeddinggemma")
		require.NoError(t, err)
		assert.Equal(t, "embeddinggemma", model)
	})

	t.Run("conflicting flag is rejected", func(t *testing.T) {
		// A resumed pass embedding with a different model would mix
		// incompatible vectors under one run
		_, err := resumeModel(run, "text-embedding-3-small")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embeddinggemma")
		assert.Contains(t, err.Error(), "text-embedding-3-small")
	})
}

func TestSearchCommandRequiresQuery(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	err := searchCommand(cli.NewContext(cli.NewApp(), set, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query")
}
