package config

const (
	defaultTempDir              = "~/.local/share/reelforge/tmp"
	defaultOutputDir            = "~/exports"
	defaultLogDir               = "~/.local/share/reelforge/logs"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultExportWidth          = 1920
	defaultExportHeight         = 1080
	defaultExportFPS            = 30
	defaultExportCRF            = 18
	defaultExportPreset         = "medium"
	defaultAudioBitrate         = "192k"
	defaultProgressInterval     = 2
	defaultSweepIntervalSeconds = 300
	defaultHandleMaxAgeSeconds  = 600
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			TempDir:   defaultTempDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Export: Export{
			Width:        defaultExportWidth,
			Height:       defaultExportHeight,
			FPS:          defaultExportFPS,
			CRF:          defaultExportCRF,
			Preset:       defaultExportPreset,
			AudioBitrate:            defaultAudioBitrate,
			ProgressIntervalSeconds: defaultProgressInterval,
		},
		Resources: Resources{
			SweepIntervalSeconds: defaultSweepIntervalSeconds,
			HandleMaxAgeSeconds:  defaultHandleMaxAgeSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
