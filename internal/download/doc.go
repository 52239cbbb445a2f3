// Package download provides the download orchestration logic for
// fetching NTS episodes.
//
// # Manager
//
// The Manager coordinates the entire download process for one episode:
//
//  1. Fetch and parse the episode page
//  2. Resolve cover art from the secondary page, or the page background
//  3. Run the external downloader into a scratch directory
//  4. Tag every produced audio file
//  5. Move the files into the save directory
//
// Show URLs are expanded through the episode listing API first, and a
// playlist of the saved episodes can be written afterwards.
//
// # Basic Usage
//
//	manager := download.NewManager(settings, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	results, err := manager.Download(ctx, "https://www.nts.live/shows/floating-points")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Concurrency
//
// Episodes of a show are downloaded at most MaxConcurrentEpisodes at a
// time, one by one by default. A failed episode does not stop the others.
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	}
//
// # External Downloader
//
// Audio is fetched by a MediaDownloader. YTDLP runs the yt-dlp binary,
// bounded by the configured download timeout.
package download
