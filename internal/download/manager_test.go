package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bogem/id3v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/nts-downloader/internal/config"
	"github.com/handiism/nts-downloader/internal/http"
	"github.com/handiism/nts-downloader/internal/nts"
)

const episodeTemplate = `<html><body>
<section id="bg" style="background-image:url({{base}}/bg.png)"></section>
<div class="bio__title"><div>
  <h1>{{title}}</h1>
  <div><h2>London <span>Monday, {{date}}</span></h2></div>
</div></div>
<div class="bio-artists"><a>Host</a></div>
<div class="episode-genres"><a>Ambient</a></div>
<div class="tracklist"><ul>
  <li class="track"><span class="track__artist">Burial</span><span class="track__title">Archangel</span></li>
</ul></div>
{{button}}
</body></html>`

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

type testSite struct {
	srv      *httptest.Server
	mu       sync.Mutex
	pages    map[string]string
	bgStatus int
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	site := &testSite{pages: map[string]string{}, bgStatus: nethttp.StatusOK}
	site.srv = httptest.NewServer(nethttp.HandlerFunc(site.serve))
	t.Cleanup(site.srv.Close)
	return site
}

func (s *testSite) serve(w nethttp.ResponseWriter, r *nethttp.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.URL.Path {
	case "/art.jpg":
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(jpegBytes)
		return
	case "/bg.png":
		if s.bgStatus != nethttp.StatusOK {
			w.WriteHeader(s.bgStatus)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG\r\n\x1a\n"))
		return
	}

	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	body, ok := s.pages[key]
	if !ok {
		nethttp.NotFound(w, r)
		return
	}
	fmt.Fprint(w, body)
}

// addEpisode serves an episode page and, when withArt is set, a secondary
// page exposing album art. It returns the episode URL.
func (s *testSite) addEpisode(alias, title, date string, secondary, withArt bool) string {
	base := s.srv.URL
	button := ""
	if secondary {
		button = fmt.Sprintf(`<button class="episode__btn mixcloud-btn" data-src="%s/mixcloud/%s"></button>`, base, alias)
		art := `<p>no art</p>`
		if withArt {
			art = fmt.Sprintf(`<div class="album-art"><img srcset="%s/small.jpg 1x,%s/art.jpg 2x"></div>`, base, base)
		}
		s.pages["/mixcloud/"+alias] = "<html><body>" + art + "</body></html>"
	}

	page := strings.NewReplacer(
		"{{base}}", base,
		"{{title}}", title,
		"{{date}}", date,
		"{{button}}", button,
	).Replace(episodeTemplate)
	s.pages["/shows/soup-kitchen/episodes/"+alias] = page
	return base + "/shows/soup-kitchen/episodes/" + alias
}

type fakeDownloader struct {
	mu       sync.Mutex
	calls    []string
	payload  []byte
	err      error
	noOutput bool
}

func (f *fakeDownloader) Download(_ context.Context, locator, outputTemplate string, _ bool) error {
	f.mu.Lock()
	f.calls = append(f.calls, locator)
	f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	if f.noOutput {
		return nil
	}
	path := strings.Replace(outputTemplate, "%(ext)s", "mp3", 1)
	path = strings.ReplaceAll(path, "%%", "%")
	return os.WriteFile(path, f.payload, 0644)
}

func mp3Payload(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	tag := id3v2.NewEmptyTag()
	tag.SetTitle("raw")
	_, err := tag.WriteTo(&buf)
	require.NoError(t, err)
	buf.Write([]byte{0xFF, 0xFB, 0x90, 0x44, 0x00, 0x00, 0x00, 0x00})
	return buf.Bytes()
}

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	s := config.DefaultSettings()
	s.SaveDir = filepath.Join(t.TempDir(), "saved")
	s.TempDir = t.TempDir()
	s.Quiet = true
	return s
}

func newTestManager(t *testing.T, site *testSite, settings *config.Settings, dl MediaDownloader) (*Manager, *[]ProgressEvent) {
	t.Helper()
	client := http.NewClient(&http.Config{RequestsPerSecond: 1000, Burst: 100})
	lister := nts.NewLister(client).WithAPIBase(site.srv.URL + "/api/v2").WithSiteBase(site.srv.URL)

	var mu sync.Mutex
	events := &[]ProgressEvent{}
	onProgress := func(e ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		*events = append(*events, e)
	}

	m := NewManager(settings, onProgress,
		WithFetcher(client),
		WithDownloader(dl),
		WithLister(lister),
	)
	return m, events
}

func TestDownloadEpisode_SavesAndTags(t *testing.T) {
	site := newTestSite(t)
	url := site.addEpisode("e1", "Soup Kitchen w/Jane", "01.02.21", true, true)
	settings := testSettings(t)
	dl := &fakeDownloader{payload: mp3Payload(t)}
	m, _ := newTestManager(t, site, settings, dl)

	meta, paths, err := m.DownloadEpisode(context.Background(), url)
	require.NoError(t, err)

	assert.Equal(t, []string{site.srv.URL + "/mixcloud/e1"}, dl.calls)
	assert.Equal(t, url, meta.URL)
	assert.Equal(t, []string{"Host", "Jane"}, meta.AllArtists)
	require.NotNil(t, meta.Image)
	assert.Equal(t, jpegBytes, meta.Image.Data)
	assert.Equal(t, "image/jpeg", meta.Image.ContentType)

	want := filepath.Join(settings.SaveDir, "Soup Kitchen w-Jane - 2021-2-1.mp3")
	assert.Equal(t, []string{want}, paths)

	tag, err := id3v2.Open(want, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tag.Close()
	assert.Equal(t, "Soup Kitchen w/Jane - 01.02.2021", tag.Title())
	assert.Equal(t, "Host; Jane", tag.Artist())
	assert.Equal(t, "NTS", tag.Album())
	assert.Equal(t, "Ambient", tag.Genre())

	scratch, err := os.ReadDir(settings.TempDir)
	require.NoError(t, err)
	assert.Empty(t, scratch, "scratch dir must be removed")
}

func TestDownloadEpisode_MetadataOnly(t *testing.T) {
	site := newTestSite(t)
	url := site.addEpisode("e1", "Soup Kitchen", "01.02.21", false, false)
	settings := testSettings(t)
	settings.Save = false
	dl := &fakeDownloader{}
	m, events := newTestManager(t, site, settings, dl)

	meta, paths, err := m.DownloadEpisode(context.Background(), url)
	require.NoError(t, err)

	var verbose []string
	for _, e := range *events {
		if e.Level == LevelVerbose {
			verbose = append(verbose, e.Message)
		}
	}
	assert.Contains(t, verbose, "  Burial - Archangel")

	assert.Empty(t, dl.calls)
	assert.Nil(t, paths)
	assert.Equal(t, "Soup Kitchen", meta.Title)
	require.NotNil(t, meta.Image, "background image used without a secondary page")
	assert.Equal(t, "image/png", meta.Image.ContentType)
	assert.NoDirExists(t, settings.SaveDir)
}

func TestDownloadEpisode_FallsBackToBackground(t *testing.T) {
	site := newTestSite(t)
	url := site.addEpisode("e1", "Soup Kitchen", "01.02.21", true, false)
	settings := testSettings(t)
	settings.Save = false
	m, _ := newTestManager(t, site, settings, &fakeDownloader{})

	meta, _, err := m.DownloadEpisode(context.Background(), url)
	require.NoError(t, err)

	require.NotNil(t, meta.Image)
	assert.Equal(t, "image/png", meta.Image.ContentType)
}

func TestDownloadEpisode_BackgroundFailureIsNotFatal(t *testing.T) {
	site := newTestSite(t)
	site.bgStatus = nethttp.StatusInternalServerError
	url := site.addEpisode("e1", "Soup Kitchen", "01.02.21", false, false)
	settings := testSettings(t)
	settings.Save = false
	m, events := newTestManager(t, site, settings, &fakeDownloader{})

	meta, _, err := m.DownloadEpisode(context.Background(), url)
	require.NoError(t, err)

	assert.Nil(t, meta.Image)
	hasWarning := false
	for _, e := range *events {
		if e.Level == LevelWarning {
			hasWarning = true
		}
	}
	assert.True(t, hasWarning)
}

func TestDownloadEpisode_MissingSecondaryLink(t *testing.T) {
	site := newTestSite(t)
	url := site.addEpisode("e1", "Soup Kitchen", "01.02.21", false, false)
	dl := &fakeDownloader{payload: mp3Payload(t)}
	m, _ := newTestManager(t, site, testSettings(t), dl)

	meta, _, err := m.DownloadEpisode(context.Background(), url)

	var perr *nts.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "secondary link", perr.Field)
	assert.NotNil(t, meta)
	assert.Empty(t, dl.calls)
}

func TestDownloadEpisode_ParseFailure(t *testing.T) {
	site := newTestSite(t)
	site.pages["/shows/soup-kitchen/episodes/broken"] = "<html><body>maintenance</body></html>"
	m, _ := newTestManager(t, site, testSettings(t), &fakeDownloader{})

	meta, _, err := m.DownloadEpisode(context.Background(), site.srv.URL+"/shows/soup-kitchen/episodes/broken")

	assert.Nil(t, meta)
	assert.ErrorIs(t, err, nts.ErrMissingElement)
}

func TestDownloadEpisode_DownloaderFails(t *testing.T) {
	site := newTestSite(t)
	url := site.addEpisode("e1", "Soup Kitchen", "01.02.21", true, true)
	settings := testSettings(t)
	boom := errors.New("exit status 1")
	m, _ := newTestManager(t, site, settings, &fakeDownloader{err: boom})

	_, paths, err := m.DownloadEpisode(context.Background(), url)

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, paths)
	scratch, readErr := os.ReadDir(settings.TempDir)
	require.NoError(t, readErr)
	assert.Empty(t, scratch)
}

func TestDownloadEpisode_NoOutputFiles(t *testing.T) {
	site := newTestSite(t)
	url := site.addEpisode("e1", "Soup Kitchen", "01.02.21", true, true)
	m, _ := newTestManager(t, site, testSettings(t), &fakeDownloader{noOutput: true})

	_, _, err := m.DownloadEpisode(context.Background(), url)

	assert.ErrorIs(t, err, ErrNoMediaFiles)
}

func TestDownloadEpisode_UnsupportedOutput(t *testing.T) {
	site := newTestSite(t)
	url := site.addEpisode("e1", "Soup Kitchen", "01.02.21", true, true)
	settings := testSettings(t)
	m, _ := newTestManager(t, site, settings, &fakeDownloader{payload: []byte("not audio at all")})

	_, paths, err := m.DownloadEpisode(context.Background(), url)

	require.Error(t, err)
	assert.Empty(t, paths)
	assert.NoFileExists(t, filepath.Join(settings.SaveDir, "Soup Kitchen - 2021-2-1.mp3"))
}

func TestDownloadShow(t *testing.T) {
	site := newTestSite(t)
	site.addEpisode("e1", "Soup Kitchen w/Jane", "01.02.21", true, true)
	site.addEpisode("e2", "Soup Kitchen w/John", "08.02.21", true, true)
	site.pages["/api/v2/shows/soup-kitchen/episodes?offset=0"] = `{"metadata":{"resultset":{"count":2,"limit":12,"offset":0}},
		"results":[{"status":"published","episode_alias":"e1"},{"status":"published","episode_alias":"e2"}]}`

	settings := testSettings(t)
	settings.MaxConcurrentEpisodes = 2
	settings.CreatePlaylist = true
	m, _ := newTestManager(t, site, settings, &fakeDownloader{payload: mp3Payload(t)})

	results, err := m.DownloadShow(context.Background(), "soup-kitchen")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, site.srv.URL+"/shows/soup-kitchen/episodes/e1", results[0].URL)
	assert.Equal(t, site.srv.URL+"/shows/soup-kitchen/episodes/e2", results[1].URL)
	for _, r := range results {
		assert.NoError(t, r.Err)
		assert.Len(t, r.Paths, 1)
	}

	done, total := m.GetProgress()
	assert.Equal(t, int32(2), done)
	assert.Equal(t, int32(2), total)

	playlist, err := os.ReadFile(filepath.Join(settings.SaveDir, "soup-kitchen.m3u"))
	require.NoError(t, err)
	assert.Equal(t,
		"#EXTM3U\n"+
			"#EXTINF:-1,Soup Kitchen w/Jane - 01.02.2021\nSoup Kitchen w-Jane - 2021-2-1.mp3\n"+
			"#EXTINF:-1,Soup Kitchen w/John - 08.02.2021\nSoup Kitchen w-John - 2021-2-8.mp3\n",
		string(playlist))
}

func TestDownloadShow_PartialFailure(t *testing.T) {
	site := newTestSite(t)
	site.addEpisode("e1", "Soup Kitchen", "01.02.21", true, true)
	site.pages["/api/v2/shows/soup-kitchen/episodes?offset=0"] = `{"metadata":{"resultset":{"count":2,"limit":12,"offset":0}},
		"results":[{"status":"published","episode_alias":"e1"},{"status":"published","episode_alias":"gone"}]}`

	m, _ := newTestManager(t, site, testSettings(t), &fakeDownloader{payload: mp3Payload(t)})

	results, err := m.DownloadShow(context.Background(), "soup-kitchen")

	require.Error(t, err)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	var ferr *http.FetchError
	require.True(t, errors.As(results[1].Err, &ferr))
	assert.Equal(t, nethttp.StatusNotFound, ferr.StatusCode)
}

func TestDownload_RejectsForeignURL(t *testing.T) {
	site := newTestSite(t)
	m, _ := newTestManager(t, site, testSettings(t), &fakeDownloader{})

	_, err := m.Download(context.Background(), "https://example.com/shows/x")

	assert.ErrorIs(t, err, nts.ErrUnknownURL)
}
