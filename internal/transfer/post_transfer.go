package transfer

type PostCreation struct {
	Title            string `form:"title"`
	ArticleID        int64  `form:"article_id"`
	TwitterContent   string `form:"twitter_content"`
	LinkedinContent  string `form:"linkedin_content"`
	ThreadsContent   string `form:"threads_content"`
	InstagramContent string `form:"instagram_content"`
	TargetPlatforms  string `form:"target_platforms"`
	ScheduledTime    string `form:"scheduled_time"`
}

type ArticleCreation struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Summary     string `json:"summary"`
	PublishedAt string `json:"published_at"`
}

type GenerationRequest struct {
	Platforms []string `json:"platforms,omitempty"`
	Tone      string   `json:"tone,omitempty"`
}

type SettingsUpdate struct {
	Timezone         string   `json:"timezone"`
	DefaultPlatforms []string `json:"default_platforms"`
	AutoPublish      bool     `json:"auto_publish"`
}
