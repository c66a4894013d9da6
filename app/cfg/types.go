package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// HTTP configuration
	Port    string
	BaseUrl string

	// Subscription configuration
	AllowlistFile  string
	TokenSecret    string
	TokenTTLHours  int
	SendGridAPIKey string
	FromEmail      string
	FromName       string

	// Pipeline configuration
	ChannelID        string
	MaxVideos        int
	PipelineSchedule string
	CronSecret       string
	RequestTimeout   int

	// Extractor configuration
	GeminiAPIKey string
	GeminiModel  string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
