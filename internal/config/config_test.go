package config_test

import (
	"runtime"
	"testing"

	"github.com/okian/examboard/internal/config"
	"github.com/okian/examboard/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.MaxUploadMB, convey.ShouldEqual, 32)
			convey.So(cfg.MinNameParts, convey.ShouldEqual, 2)
			convey.So(cfg.MinExams, convey.ShouldEqual, 1)
			convey.So(cfg.TopN, convey.ShouldEqual, 15)
			convey.So(cfg.FastestN, convey.ShouldEqual, 10)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("And its settings match the pipeline defaults", func() {
			convey.So(cfg.Settings(), convey.ShouldResemble, model.DefaultSettings())
		})

		convey.Convey("And the upload cap is in bytes", func() {
			convey.So(cfg.MaxUploadBytes(), convey.ShouldEqual, 32<<20)
		})
	})
}

func TestConfig_Settings(t *testing.T) {
	convey.Convey("Given a config with custom columns", t, func() {
		cfg := config.New()
		cfg.NameColumns = []string{"Full Name"}
		cfg.MinExams = 3

		convey.Convey("When projecting settings", func() {
			s := cfg.Settings()

			convey.Convey("Then the values are copied", func() {
				convey.So(s.Columns.Name, convey.ShouldResemble, []string{"Full Name"})
				convey.So(s.MinExams, convey.ShouldEqual, 3)
				s.Columns.Name[0] = "changed"
				convey.So(cfg.NameColumns[0], convey.ShouldEqual, "Full Name")
			})
		})
	})
}
