package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/lrstanley/go-ytdlp"

	"mediadl-server/internal/models"
)

const progressInterval = 500 * time.Millisecond

// YTDLP drives the yt-dlp binary through go-ytdlp.
type YTDLP struct {
	logger *slog.Logger
}

func NewYTDLP(logger *slog.Logger) *YTDLP {
	if logger == nil {
		logger = slog.Default()
	}
	return &YTDLP{logger: logger.With("component", "downloader")}
}

// Info fetches metadata for url without downloading. Extraction is retried a
// few times; transient extractor hiccups are common.
func (e *YTDLP) Info(ctx context.Context, url string) ([]models.VideoInfo, error) {
	url = SanitizeURL(url)

	var res *ytdlp.Result
	err := retry.Do(
		func() error {
			r, err := ytdlp.New().
				SkipDownload().
				DumpJSON().
				NoWarnings().
				Run(ctx, url)
			if err != nil {
				return err
			}
			res = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("extract info: %w", err)
	}

	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("parse info: %w", err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("no video information for %s", url)
	}

	out := make([]models.VideoInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, toVideoInfo(info, url))
	}
	return out, nil
}

// Download fetches url according to opts. The hook fires on every progress
// update from yt-dlp and once more with PhaseError if the run fails.
func (e *YTDLP) Download(ctx context.Context, url string, opts models.DownloadOptions, hook ProgressFunc) (*Result, error) {
	url = SanitizeURL(url)

	dir := opts.DownloadDir
	if opts.CreateSubfolder {
		sub := "Video"
		if opts.AudioOnly {
			sub = "Audio"
		}
		dir = filepath.Join(dir, sub)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	tmpl := "%(title)s.%(ext)s"
	if name := SanitizeFilename(opts.OutputFilename); name != "" {
		tmpl = name + ".%(ext)s"
	}

	dl := ytdlp.New().
		Format(buildFormat(opts)).
		Output(filepath.Join(dir, tmpl)).
		RestrictFilenames().
		ForceOverwrites().
		ConcurrentFragments(5).
		Retries("3")

	if opts.AudioOnly {
		dl = dl.ExtractAudio().
			AudioFormat("mp3").
			AudioQuality(opts.AudioBitrate + "K")
	} else {
		dl = dl.MergeOutputFormat(opts.Format)
	}

	dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
		hook(translateProgress(update))
	})

	e.logger.Info("starting yt-dlp", "url", url, "format", buildFormat(opts), "dir", dir)

	res, err := dl.Run(ctx, url)
	if err != nil {
		hook(Progress{Phase: PhaseError, Err: err})
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}

	out := &Result{}
	if res != nil {
		if infos, ierr := res.GetExtractedInfo(); ierr == nil && len(infos) > 0 {
			info := infos[0]
			if info.Title != nil {
				out.Title = *info.Title
			}
			if info.Filename != nil {
				out.FilePath = *info.Filename
			}
			if info.Duration != nil {
				out.Duration = int(*info.Duration)
			}
		}
	}

	// yt-dlp reports the pre-postprocessing filename; the final extension is
	// decided by the audio codec or the merge container.
	if out.FilePath != "" {
		ext := opts.Format
		if opts.AudioOnly {
			ext = "mp3"
		}
		out.FilePath = swapExt(out.FilePath, ext)
	}

	return out, nil
}

func translateProgress(u ytdlp.ProgressUpdate) Progress {
	p := Progress{
		Phase:           PhaseDownloading,
		DownloadedBytes: int64(u.DownloadedBytes),
		TotalBytes:      int64(u.TotalBytes),
	}

	if !u.Started.IsZero() {
		if elapsed := time.Since(u.Started); elapsed > 0 {
			p.SpeedBps = float64(u.DownloadedBytes) / elapsed.Seconds()
		}
	}
	if eta := u.ETA(); eta > 0 {
		p.ETASeconds = int(eta.Seconds())
	}
	if u.Info != nil && u.Info.Filename != nil {
		p.Filename = *u.Info.Filename
	}

	switch u.Status {
	case ytdlp.ProgressStatusFinished, ytdlp.ProgressStatusPostProcessing:
		p.Phase = PhaseFinished
	case ytdlp.ProgressStatusError:
		p.Phase = PhaseError
	}
	return p
}

func toVideoInfo(info *ytdlp.ExtractedInfo, url string) models.VideoInfo {
	v := models.VideoInfo{
		Success:                true,
		URL:                    url,
		Resolutions:            []string{"2160p", "1440p", "1080p", "720p", "480p", "360p"},
		AvailableContainers:    []string{"mp4", "mkv", "webm"},
		AvailableAudioBitrates: []string{"128", "192", "320"},
		Platform:               platformFromURL(url),
	}
	if info.Title != nil {
		v.Title = *info.Title
	}
	if info.Duration != nil {
		v.Duration = int(*info.Duration)
		v.DurationString = models.FormatDuration(v.Duration)
	}
	if info.Thumbnail != nil {
		v.Thumbnail = *info.Thumbnail
	}
	if info.Uploader != nil {
		v.Uploader = *info.Uploader
	}
	if info.WebpageURL != nil {
		v.WebpageURL = *info.WebpageURL
		v.URL = *info.WebpageURL
	}
	return v
}
