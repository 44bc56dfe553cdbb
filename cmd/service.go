package cmd

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai/gemini"
	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/secrets"
)

// keySource resolves the Gemini key on every call, so a key added to the
// environment or the key file is picked up without a restart.
func keySource() interview.KeySource {
	return func() (string, error) {
		return secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: viper.GetString("gemini.api-key"),
			File:  viper.GetString("gemini.api-key-file"),
		})
	}
}

func newService(cfg *Config, logger *zap.Logger, recorder interview.Recorder) *interview.Service {
	factory := gemini.Factory(gemini.Config{
		Model:        cfg.Gemini.Model,
		BaseURL:      cfg.Gemini.BaseURL,
		MaxLogLength: cfg.Gemini.MaxLogLength,
	}, logger)

	opts := []interview.Option{
		interview.WithLogger(logger),
		interview.WithMaxLogLength(cfg.Gemini.MaxLogLength),
	}
	if recorder != nil {
		opts = append(opts, interview.WithRecorder(recorder))
	}

	return interview.NewService(keySource(), factory, opts...)
}
