package resolver

type generateResponse struct {
	Success     bool   `json:"success"`
	Title       string `json:"title"`
	Duration    string `json:"duration"`
	DownloadURL string `json:"download_url"`
}

type searchItemDTO struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
}
