package config

const (
	defaultLibraryDir          = "~/tv"
	defaultStateDir            = "~/.local/share/showaudit"
	defaultLogDir              = "~/.local/share/showaudit/logs"
	defaultTVDBBaseURL         = "https://api4.thetvdb.com/v4"
	defaultTVDBRequestTimeout  = 10
	defaultTVDBSearchLimit     = 10
	defaultConfidenceThreshold = 90
	defaultShowDelayMillis     = 1000
	defaultReportFilename      = "missing.csv"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		TVDB: TVDB{
			BaseURL:               defaultTVDBBaseURL,
			RequestTimeoutSeconds: defaultTVDBRequestTimeout,
			SearchLimit:           defaultTVDBSearchLimit,
		},
		Matching: Matching{
			ConfidenceThreshold: defaultConfidenceThreshold,
		},
		Scan: Scan{
			ShowDelayMillis: defaultShowDelayMillis,
		},
		Report: Report{
			Filename: defaultReportFilename,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
