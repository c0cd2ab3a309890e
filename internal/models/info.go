package models

// VideoInfo is the metadata returned for one URL by the info endpoint.
// A failed extraction carries only Error.
type VideoInfo struct {
	Success                bool     `json:"success"`
	URL                    string   `json:"url,omitempty"`
	ID                     string   `json:"id,omitempty"`
	Title                  string   `json:"title,omitempty"`
	Description            string   `json:"description,omitempty"`
	Duration               int      `json:"duration,omitempty"`
	DurationString         string   `json:"duration_string,omitempty"`
	Thumbnail              string   `json:"thumbnail,omitempty"`
	Uploader               string   `json:"uploader,omitempty"`
	Platform               string   `json:"platform,omitempty"`
	WebpageURL             string   `json:"webpage_url,omitempty"`
	Resolutions            []string `json:"resolutions,omitempty"`
	AvailableContainers    []string `json:"available_containers,omitempty"`
	AvailableAudioBitrates []string `json:"available_audio_bitrates,omitempty"`
	Error                  string   `json:"error,omitempty"`
}
