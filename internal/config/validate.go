package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePipeline() error {
	return ensurePositiveMap(map[string]int{
		"pipeline.workers":           c.Pipeline.Workers,
		"pipeline.queue_capacity":    c.Pipeline.QueueCapacity,
		"pipeline.job_timeout":       c.Pipeline.JobTimeout,
		"pipeline.retention_seconds": c.Pipeline.RetentionSeconds,
		"pipeline.sweep_interval":    c.Pipeline.SweepInterval,
	})
}

func (c *Config) validateRender() error {
	if err := ensurePositiveMap(map[string]int{
		"render.width":  c.Render.Width,
		"render.height": c.Render.Height,
		"render.fps":    c.Render.FPS,
	}); err != nil {
		return err
	}
	if c.Render.Width%2 != 0 || c.Render.Height%2 != 0 {
		return errors.New("render.width and render.height must be even (yuv420p chroma subsampling)")
	}
	if c.Render.SentencePauseFactor < 1 {
		return errors.New("render.sentence_pause_factor must be >= 1")
	}
	if c.Render.ClausePauseFactor < 1 {
		return errors.New("render.clause_pause_factor must be >= 1")
	}
	if c.Render.FFmpegCRF < 0 || c.Render.FFmpegCRF > 51 {
		return errors.New("render.ffmpeg_crf must be between 0 and 51")
	}
	return nil
}

func (c *Config) validateLimits() error {
	if c.Limits.MaxWords <= 0 {
		return errors.New("limits.max_words must be positive")
	}
	if c.Limits.MaxUploadBytes <= 0 {
		return errors.New("limits.max_upload_bytes must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
