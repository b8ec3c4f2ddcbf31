package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/examboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"EXAMBOARD_CONFIG", "EXAMBOARD_ENV_FILE", "EXAMBOARD_ADDR", "EXAMBOARD_QUEUE_SIZE",
	"EXAMBOARD_WORKER_COUNT", "EXAMBOARD_MIN_EXAMS", "EXAMBOARD_NAME_COLUMNS",
	"EXAMBOARD_LOG_LEVEL", "EXAMBOARD_TOP_N",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func createTempFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.NameColumns, convey.ShouldResemble, config.New().NameColumns)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("EXAMBOARD_ADDR", ":8080")
			_ = os.Setenv("EXAMBOARD_QUEUE_SIZE", "10")
			_ = os.Setenv("EXAMBOARD_MIN_EXAMS", "3")
			_ = os.Setenv("EXAMBOARD_NAME_COLUMNS", "Full Name, Name")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10)
				convey.So(cfg.MinExams, convey.ShouldEqual, 3)
				convey.So(cfg.NameColumns, convey.ShouldResemble, []string{"Full Name", "Name"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := createTempFile(t, "config.yaml", `
addr: ":9090"
worker_count: 4
score_columns:
  - Score
min_name_parts: 1
`)
			_ = os.Setenv("EXAMBOARD_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.ScoreColumns, convey.ShouldResemble, []string{"Score"})
				convey.So(cfg.MinNameParts, convey.ShouldEqual, 1)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := createTempFile(t, "config.yaml", "addr: \":9090\"\nworker_count: 4\n")
			_ = os.Setenv("EXAMBOARD_CONFIG", path)
			_ = os.Setenv("EXAMBOARD_WORKER_COUNT", "8")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When a .env file is named", func() {
			path := createTempFile(t, "test.env", "EXAMBOARD_TOP_N=20\nEXAMBOARD_LOG_LEVEL=debug\n")
			_ = os.Setenv("EXAMBOARD_ENV_FILE", path)
			_ = os.Setenv("EXAMBOARD_LOG_LEVEL", "warn")

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values apply without overriding the real env", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.TopN, convey.ShouldEqual, 20)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			path := createTempFile(t, "bad.yaml", `invalid: yaml: content: [`)
			_ = os.Setenv("EXAMBOARD_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("EXAMBOARD_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("EXAMBOARD_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a threshold is below one", func() {
			_ = os.Setenv("EXAMBOARD_MIN_EXAMS", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "minexams")
			})
		})

		convey.Convey("When the log level is unknown", func() {
			_ = os.Setenv("EXAMBOARD_LOG_LEVEL", "loud")

			_, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
