package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/acerank/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadDefaults(t *testing.T) {
	Convey("Given no file and no env overrides", t, func() {
		os.Unsetenv("ACERANK_CONFIG")

		cfg, err := config.Load(context.Background())

		Convey("Then the defaults come back", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.LogisticAlpha, ShouldEqual, 1.1)
		})
	})
}

func TestLoadEnvOverrides(t *testing.T) {
	Convey("Given env overrides", t, func() {
		os.Unsetenv("ACERANK_CONFIG")
		t.Setenv("ACERANK_ADDR", ":7070")
		t.Setenv("ACERANK_QUEUE_SIZE", "33")
		t.Setenv("ACERANK_LOGISTIC_ALPHA", "0.9")
		t.Setenv("ACERANK_WEIGHTS__OFFENSE", "0.5")

		cfg, err := config.Load(context.Background())

		Convey("Then env wins over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.SnapshotQueueSize, ShouldEqual, 33)
			So(cfg.LogisticAlpha, ShouldEqual, 0.9)
			So(cfg.Weights.Offense, ShouldEqual, 0.5)
		})

		Convey("And untouched fields keep their defaults", func() {
			So(cfg.Weights.Defense, ShouldEqual, 0.15)
			So(cfg.DecayBase, ShouldEqual, 0.75)
		})
	})
}

func TestLoadFile(t *testing.T) {
	Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "acerank.yaml")
		yaml := "addr: \":6060\"\nworker_count: 2\nshrinkage:\n  offense: 3\n"
		So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)
		t.Setenv("ACERANK_CONFIG", path)

		cfg, err := config.Load(context.Background())

		Convey("Then file values layer over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":6060")
			So(cfg.WorkerCount, ShouldEqual, 2)
			So(cfg.Shrinkage.Offense, ShouldEqual, 3)
			So(cfg.Shrinkage.Capital, ShouldEqual, 8)
		})

		Convey("And env still wins over the file", func() {
			t.Setenv("ACERANK_ADDR", ":5050")
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":5050")
		})
	})
}

func TestLoadValidation(t *testing.T) {
	Convey("Given invalid overrides", t, func() {
		os.Unsetenv("ACERANK_CONFIG")

		Convey("When the decay base is out of range", func() {
			t.Setenv("ACERANK_DECAY_BASE", "1.5")
			_, err := config.Load(context.Background())

			Convey("Then loading fails with the sentinel", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the queue size is non-positive", func() {
			t.Setenv("ACERANK_QUEUE_SIZE", "0")
			_, err := config.Load(context.Background())
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the config file is missing", func() {
			t.Setenv("ACERANK_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
			_, err := config.Load(context.Background())
			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})
	})
}
