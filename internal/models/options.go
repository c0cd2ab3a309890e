package models

// DownloadOptions is the immutable per-job settings snapshot taken at
// submission time.
type DownloadOptions struct {
	Resolution      string `json:"resolution"`
	Format          string `json:"format"`
	AudioOnly       bool   `json:"audio_only"`
	AudioBitrate    string `json:"audio_bitrate"`
	OutputFilename  string `json:"output_filename,omitempty"`
	DownloadDir     string `json:"download_dir"`
	CreateSubfolder bool   `json:"create_subfolder"`
}

// InfoRequest asks for metadata on one or more URLs.
type InfoRequest struct {
	URLs []string `json:"urls"`
}

// DownloadRequestItem is one entry of a batch download request.
type DownloadRequestItem struct {
	URL             string `json:"url"`
	Resolution      string `json:"resolution"`
	Format          string `json:"format"`
	AudioOnly       bool   `json:"audio_only"`
	AudioBitrate    string `json:"audio_bitrate"`
	OutputFilename  string `json:"output_filename"`
	DownloadDir     string `json:"download_dir"`
	CreateSubfolder *bool  `json:"create_subfolder"`
}

// DownloadRequest is the batch submission payload. DownloadDir is the
// fallback directory for items that don't set their own.
type DownloadRequest struct {
	Downloads   []DownloadRequestItem `json:"downloads"`
	DownloadDir string                `json:"download_dir"`
}

// Options resolves the item into a concrete settings snapshot. Per-item
// values beat the batch-level directory; unset fields get server defaults.
func (it DownloadRequestItem) Options(globalDir string) DownloadOptions {
	opts := DownloadOptions{
		Resolution:      it.Resolution,
		Format:          it.Format,
		AudioOnly:       it.AudioOnly,
		AudioBitrate:    it.AudioBitrate,
		OutputFilename:  it.OutputFilename,
		DownloadDir:     it.DownloadDir,
		CreateSubfolder: true,
	}
	if it.CreateSubfolder != nil {
		opts.CreateSubfolder = *it.CreateSubfolder
	}
	if opts.Resolution == "" {
		opts.Resolution = "best"
	}
	if opts.Format == "" {
		opts.Format = "mp4"
	}
	if opts.AudioBitrate == "" {
		opts.AudioBitrate = "192"
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = globalDir
	}
	return opts
}
