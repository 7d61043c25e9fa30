// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package config

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// CaptureConfig selects the external command used as the platform capture
// source. An empty command leaves capture unsupported.
type CaptureConfig struct {
	Command     string   `mapstructure:"command"`
	Args        []string `mapstructure:"args"`
	SampleRate  uint32   `mapstructure:"sample_rate" validate:"required"`
	Channels    uint32   `mapstructure:"channels" validate:"required,min=1,max=2"`
	ChunkFrames int      `mapstructure:"chunk_frames" validate:"required,min=1"`
}

// Application config structure
type AppConfig struct {
	Name     string `mapstructure:"service_name" validate:"required"`
	Version  string `mapstructure:"version" validate:"required"`
	Env      string `mapstructure:"env" validate:"required"`
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required"`
	LogPath  string `mapstructure:"log_path" validate:"required"`

	// default directory for recordings when a request leaves it out
	OutputDir        string   `mapstructure:"output_dir"`
	CorsAllowOrigins []string `mapstructure:"cors_allow_origins"`

	Capture CaptureConfig `mapstructure:"capture" validate:"required"`
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil {
		log.Printf("Reading from env variables.")
	}
	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// keeping watch on https://github.com/spf13/viper/issues/188
	v.SetDefault("SERVICE_NAME", "recording-api")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("ENV", "development")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 9095)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_PATH", os.TempDir())
	v.SetDefault("OUTPUT_DIR", "")
	v.SetDefault("CORS_ALLOW_ORIGINS", []string{"*"})

	v.SetDefault("CAPTURE__COMMAND", "")
	v.SetDefault("CAPTURE__ARGS", []string{})
	v.SetDefault("CAPTURE__SAMPLE_RATE", 48000)
	v.SetDefault("CAPTURE__CHANNELS", 2)
	v.SetDefault("CAPTURE__CHUNK_FRAMES", 480)
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
