package memsource

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// ProcSettings configures the "procmem" source type.
type ProcSettings struct {
	Process string `yaml:"process" mapstructure:"process" validate:"required"`
	Address string `yaml:"address" mapstructure:"address" validate:"required"`
}

// SnapshotSettings configures the "snapshot" source type.
type SnapshotSettings struct {
	Path string `yaml:"path" mapstructure:"path" validate:"required"`
}

// Types returns the available source type names.
func Types() []string {
	return []string{"procmem", "snapshot"}
}

// New creates a source of the given type from its settings map.
func New(sourceType string, settings map[string]any) (Source, error) {
	zlog.Debug().Msgf("creating memory source: type=%s settings=%+v", sourceType, settings)

	switch sourceType {
	case "procmem":
		var cfg ProcSettings
		if err := decodeSettings(settings, &cfg); err != nil {
			return nil, errors.Wrap(err, "invalid procmem settings")
		}
		addr, err := strconv.ParseUint(cfg.Address, 0, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid procmem address %q", cfg.Address)
		}
		return NewProcSource(cfg.Process, addr), nil

	case "snapshot":
		var cfg SnapshotSettings
		if err := decodeSettings(settings, &cfg); err != nil {
			return nil, errors.Wrap(err, "invalid snapshot settings")
		}
		return LoadSnapshotFile(cfg.Path)

	default:
		return nil, errors.Newf("unsupported source type: %s", sourceType)
	}
}

func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "settings validation failed")
	}
	return nil
}
