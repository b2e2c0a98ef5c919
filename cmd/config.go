package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"

	"roadguard/models"
)

const (
	DefaultConfName = "roadguard.toml"
	EnvPrefix       = "ROADGUARD"
)

var AppVersion = "n/a"
var CommitHash = "n/a"
var BuildTimestamp = "n/a"

func BuildVersionOutput(appName string) string {
	return fmt.Sprintf("%s %s\nbuild: %s (%s)\n\n", appName, AppVersion, CommitHash, BuildTimestamp)
}

// LoadConf decodes the toml file at path. A missing file yields a zero conf
// and no error, unless required is set.
func LoadConf(path string, required bool) (models.RoadguardConf, error) {
	var conf models.RoadguardConf
	md, err := toml.DecodeFile(path, &conf)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return models.RoadguardConf{}, nil
		}
		return models.RoadguardConf{}, fmt.Errorf("%w: invalid toml conf file %s: %w", models.ErrValidation, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return models.RoadguardConf{}, fmt.Errorf("%w: unknown keys in %s: %v", models.ErrValidation, path, undecoded)
	}
	return conf, nil
}
