package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/nts-downloader/internal/audio"
	"github.com/handiism/nts-downloader/internal/config"
	"github.com/handiism/nts-downloader/internal/http"
	ioutils "github.com/handiism/nts-downloader/internal/io"
	"github.com/handiism/nts-downloader/internal/logger"
	"github.com/handiism/nts-downloader/internal/model"
	"github.com/handiism/nts-downloader/internal/nts"
)

// ErrNoMediaFiles is returned when the downloader exits successfully but
// left no file named after the episode.
var ErrNoMediaFiles = errors.New("download: no media files produced")

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Fetcher retrieves pages and images.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*http.Response, error)
	Get(ctx context.Context, url string) ([]byte, error)
}

// EpisodeResult is the outcome of one episode of a show download.
type EpisodeResult struct {
	URL      string
	Metadata *model.EpisodeMetadata
	Paths    []string
	Err      error
}

// Manager coordinates episode downloads.
type Manager struct {
	settings     *config.Settings
	fetcher      Fetcher
	downloader   MediaDownloader
	lister       *nts.Lister
	tagger       *audio.Tagger
	playlist     *audio.PlaylistCreator
	imageService *ioutils.ImageService
	logger       *slog.Logger

	totalEpisodes int32
	doneEpisodes  int32

	onProgress func(ProgressEvent)
}

// Option customizes a Manager.
type Option func(*Manager)

// WithFetcher replaces the HTTP client used for pages and images.
func WithFetcher(f Fetcher) Option {
	return func(m *Manager) { m.fetcher = f }
}

// WithDownloader replaces the external media downloader.
func WithDownloader(d MediaDownloader) Option {
	return func(m *Manager) { m.downloader = d }
}

// WithLister replaces the show episode lister.
func WithLister(l *nts.Lister) Option {
	return func(m *Manager) { m.lister = l }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a new download Manager. Components not supplied as
// options are built from settings.
func NewManager(settings *config.Settings, onProgress func(ProgressEvent), opts ...Option) *Manager {
	m := &Manager{
		settings:     settings,
		tagger:       audio.NewTagger(settings.ToTagOptions()),
		playlist:     audio.NewPlaylistCreator(settings.ToPlaylistFormat(), settings.M3UExtended),
		imageService: ioutils.NewImageService(),
		onProgress:   onProgress,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = logger.Discard()
	}
	if m.fetcher == nil {
		httpCfg := settings.ToHTTPConfig()
		httpCfg.Logger = m.logger
		m.fetcher = http.NewClient(httpCfg)
	}
	if m.downloader == nil {
		m.downloader = NewYTDLP(settings.DownloaderPath, settings.DownloaderArgs, settings.DownloadTimeout()).WithLogger(m.logger)
	}
	if m.lister == nil {
		m.lister = nts.NewLister(m.fetcher)
	}
	return m
}

// GetProgress returns how many episodes of the current run are finished.
func (m *Manager) GetProgress() (done, total int32) {
	return atomic.LoadInt32(&m.doneEpisodes), atomic.LoadInt32(&m.totalEpisodes)
}

// Download classifies rawURL and downloads the single episode or every
// episode of the show it points at.
func (m *Manager) Download(ctx context.Context, rawURL string) ([]EpisodeResult, error) {
	target, err := nts.ClassifyURL(rawURL)
	if err != nil {
		return nil, err
	}

	if target.Kind == nts.KindShow {
		return m.DownloadShow(ctx, target.Show)
	}

	atomic.StoreInt32(&m.totalEpisodes, 1)
	atomic.StoreInt32(&m.doneEpisodes, 0)

	meta, paths, err := m.DownloadEpisode(ctx, target.URL)
	atomic.AddInt32(&m.doneEpisodes, 1)
	return []EpisodeResult{{URL: target.URL, Metadata: meta, Paths: paths, Err: err}}, err
}

// DownloadShow lists every published episode of a show and downloads them,
// at most max_concurrent_episodes at a time. A failed episode does not stop
// the others; the failures are joined into the returned error.
//
// With create_playlist set, a playlist of the saved files in listing order
// is written to save_dir afterwards.
func (m *Manager) DownloadShow(ctx context.Context, show string) ([]EpisodeResult, error) {
	m.progress(ProgressEvent{Message: fmt.Sprintf("Listing episodes of %s", show), Level: LevelInfo})

	urls, err := m.lister.ListEpisodes(ctx, show)
	if err != nil {
		return nil, err
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Found %d episodes of %s", len(urls), show), Level: LevelInfo})
	atomic.StoreInt32(&m.totalEpisodes, int32(len(urls)))
	atomic.StoreInt32(&m.doneEpisodes, 0)

	results := make([]EpisodeResult, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(m.settings.MaxConcurrentEpisodes, 1))

	for i, episodeURL := range urls {
		g.Go(func() error {
			meta, paths, err := m.DownloadEpisode(gctx, episodeURL)
			results[i] = EpisodeResult{URL: episodeURL, Metadata: meta, Paths: paths, Err: err}
			atomic.AddInt32(&m.doneEpisodes, 1)
			return nil // Continue with other episodes
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}

	if m.settings.CreatePlaylist && m.settings.Save {
		m.writePlaylist(ctx, show, results)
	}

	if len(errs) == 0 {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Successfully downloaded show: %s", show), Level: LevelSuccess})
	} else {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Finished %s, %d of %d episodes failed", show, len(errs), len(urls)), Level: LevelWarning})
	}
	return results, errors.Join(errs...)
}

// DownloadEpisode scrapes an episode page and, when saving is enabled,
// downloads, tags and moves its audio into save_dir.
//
// The metadata is returned whenever the page could be parsed, even if a
// later step failed. The returned paths are the files that reached
// save_dir; a file already moved stays there when a later one fails.
func (m *Manager) DownloadEpisode(ctx context.Context, episodeURL string) (*model.EpisodeMetadata, []string, error) {
	m.progress(ProgressEvent{Message: fmt.Sprintf("Fetching episode: %s", episodeURL), Level: LevelVerbose})

	page, err := m.fetcher.Get(ctx, episodeURL)
	if err != nil {
		m.fail(episodeURL, err)
		return nil, nil, err
	}

	doc, err := nts.ParseHTML(bytes.NewReader(page))
	if err != nil {
		m.fail(episodeURL, err)
		return nil, nil, err
	}
	meta, err := nts.ParseEpisode(doc)
	if err != nil {
		m.fail(episodeURL, err)
		return nil, nil, err
	}
	meta.URL = episodeURL
	meta.MergeArtists()

	m.progress(ProgressEvent{Message: fmt.Sprintf("Parsed %s with %d tracks", meta.Name(), len(meta.Tracks)), Level: LevelVerbose})
	for _, track := range meta.Tracks {
		m.progress(ProgressEvent{Message: "  " + track.String(), Level: LevelVerbose})
	}

	secondaryURL, hasSecondary := nts.SecondaryLink(doc)

	if err := m.resolveImage(ctx, meta, secondaryURL, hasSecondary); err != nil {
		m.fail(episodeURL, err)
		return meta, nil, err
	}

	if !m.settings.Save {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Parsed: %s", meta.Name()), Level: LevelSuccess})
		return meta, nil, nil
	}

	if !hasSecondary {
		err := &nts.ParseError{Field: "secondary link", Err: nts.ErrMissingElement}
		m.fail(episodeURL, err)
		return meta, nil, err
	}

	paths, err := m.saveEpisode(ctx, meta, secondaryURL)
	if err != nil {
		m.fail(episodeURL, err)
		return meta, paths, err
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Downloaded: %s", meta.Name()), Level: LevelSuccess})
	return meta, paths, nil
}

// resolveImage sets meta.Image from the secondary page's album art, or
// else from the episode page's background image.
//
// Failing to reach the secondary page or its album art is fatal. The
// background image is a best effort: a failed fetch leaves Image nil.
func (m *Manager) resolveImage(ctx context.Context, meta *model.EpisodeMetadata, secondaryURL string, hasSecondary bool) error {
	if hasSecondary {
		page, err := m.fetcher.Get(ctx, secondaryURL)
		if err != nil {
			return fmt.Errorf("fetch secondary page: %w", err)
		}
		doc, err := nts.ParseHTML(bytes.NewReader(page))
		if err != nil {
			return fmt.Errorf("parse secondary page: %w", err)
		}
		if artURL, ok := nts.AlbumArtURL(doc); ok {
			resp, err := m.fetcher.Fetch(ctx, artURL)
			if err != nil {
				return fmt.Errorf("fetch album art: %w", err)
			}
			meta.Image = &model.Image{Data: resp.Body, ContentType: resp.ContentType}
			return nil
		}
	}

	if meta.ImageURL == "" {
		return nil
	}

	resp, err := m.fetcher.Fetch(ctx, meta.ImageURL)
	if err != nil {
		m.logger.Warn("background image unavailable", "url", meta.ImageURL, "error", err)
		m.progress(ProgressEvent{Message: fmt.Sprintf("No cover art for %s: %v", meta.Title, err), Level: LevelWarning})
		return nil
	}
	meta.Image = &model.Image{Data: resp.Body, ContentType: resp.ContentType}
	return nil
}

// saveEpisode downloads into a scratch directory, tags every produced file
// and moves it into save_dir. The scratch directory is always removed.
func (m *Manager) saveEpisode(ctx context.Context, meta *model.EpisodeMetadata, locator string) ([]string, error) {
	m.prepareCover(ctx, meta)

	scratch, err := os.MkdirTemp(m.settings.TempDir, "nts-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	stem := meta.FileBaseName()
	template := filepath.Join(scratch, templateStem(stem)+".%(ext)s")

	m.logger.Info("downloading episode", "url", meta.URL, "locator", locator)
	if err := m.downloader.Download(ctx, locator, template, m.settings.Quiet); err != nil {
		return nil, err
	}

	files, err := ioutils.FindByPrefix(scratch, stem)
	if err != nil {
		return nil, fmt.Errorf("scan scratch dir: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoMediaFiles, stem)
	}

	if err := ioutils.EnsureDir(m.settings.SaveDir); err != nil {
		return nil, fmt.Errorf("create save dir: %w", err)
	}

	var saved []string
	for _, file := range files {
		if err := m.tagger.TagFile(file, meta); err != nil {
			return saved, err
		}
		dst := filepath.Join(m.settings.SaveDir, filepath.Base(file))
		if err := ioutils.MoveFile(ctx, file, dst); err != nil {
			return saved, err
		}
		m.logger.Debug("episode file saved", "path", dst)
		saved = append(saved, dst)
	}
	return saved, nil
}

// prepareCover resizes or converts the cover as configured. On failure
// the original bytes are kept.
func (m *Manager) prepareCover(ctx context.Context, meta *model.EpisodeMetadata) {
	if !meta.HasImage() || (!m.settings.CoverResize && !m.settings.ConvertCoverToJPG) {
		return
	}
	opts := ioutils.CoverOptions{
		Resize:        m.settings.CoverResize,
		MaxSize:       m.settings.CoverMaxSize,
		ConvertToJPEG: m.settings.ConvertCoverToJPG,
	}
	data, contentType, err := m.imageService.ProcessCover(ctx, meta.Image.Data, meta.Image.ContentType, opts)
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Keeping original cover art for %s: %v", meta.Title, err), Level: LevelWarning})
		return
	}
	meta.Image = &model.Image{Data: data, ContentType: contentType}
}

func (m *Manager) writePlaylist(ctx context.Context, show string, results []EpisodeResult) {
	var entries []audio.PlaylistEntry
	for _, r := range results {
		if r.Err != nil || r.Metadata == nil {
			continue
		}
		for _, p := range r.Paths {
			entries = append(entries, audio.PlaylistEntry{Path: p, Title: r.Metadata.Name()})
		}
	}
	if len(entries) == 0 {
		return
	}

	path := filepath.Join(m.settings.SaveDir, show+m.playlist.Format().Extension())
	content := m.playlist.CreatePlaylist(entries)
	if err := ioutils.WriteFile(ctx, path, []byte(content)); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error creating playlist: %v", err), Level: LevelWarning})
		return
	}
	m.progress(ProgressEvent{Message: fmt.Sprintf("Created playlist for %s", show), Level: LevelSuccess})
}

func (m *Manager) fail(episodeURL string, err error) {
	m.logger.Error("episode failed", "url", episodeURL, "error", err)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Error downloading %s: %v", episodeURL, err), Level: LevelError})
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
