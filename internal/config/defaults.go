package config

const (
	defaultDownloadDir        = "~/.local/share/shelfmark/downloads"
	defaultLibraryDir         = "~/books"
	defaultLogDir             = "~/.local/share/shelfmark/logs"
	defaultLogRetentionDays   = 60
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultAPIBind            = "127.0.0.1:8523"
	defaultPolicyTTLSeconds   = 60
	defaultOpenLibraryBaseURL = "https://openlibrary.org"
	defaultNotifyTimeout      = 10
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 60
	defaultMaxActiveDownloads = 2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			LibraryDir:  defaultLibraryDir,
			LogDir:      defaultLogDir,
			APIBind:     defaultAPIBind,
		},
		Policy: Policy{
			TTLSeconds:      defaultPolicyTTLSeconds,
			RequestsEnabled: true,
			AllowNotes:      true,
			Defaults: map[string]string{
				"ebook":     "download",
				"audiobook": "download",
			},
		},
		OpenLibrary: OpenLibrary{
			BaseURL: defaultOpenLibraryBaseURL,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Requests:       true,
			Downloads:      true,
			Errors:         true,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			MaxActiveDownloads: defaultMaxActiveDownloads,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
