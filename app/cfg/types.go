package cfg

type Cfg struct {
	// Inputs
	SiteFile        string
	ArticlesFile    string
	ArticlesFeedURL string

	// Build
	OutputDir       string
	AssetsSubdir    string
	AppBuildCommand string
	AppDir          string
	WorkerCount     int
	LedgerPath      string

	// Preview server
	Port string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
