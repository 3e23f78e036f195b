// Command lens is a terminal dashboard for livestream commerce analytics.
//
// Usage:
//
//	lens -video vid_123
//	lens -live live_456 -token sk-...
//	GEMINI_API_KEY=gk-... lens -provider gemini -video vid_123
//
// Flags:
//
//	-base-url string   Analytics backend URL (default: $LENS_BASE_URL or http://localhost:8080)
//	-token string      Backend API token (overrides $LENS_API_TOKEN)
//	-list              List videos and exit
//	-video string      Video ID to watch processing status for
//	-live string       Live session ID to stream metrics and advice from
//	-upload string     Glob pattern of video files to upload before starting
//	-session string    Path to chat session file to resume
//	-provider string   Chat provider: backend, gemini (default: backend)
//	-api-key string    Gemini API key (overrides GEMINI_API_KEY)
//	-reconnect-on-stale   Force a reconnect when a live stream goes quiet
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/livelens/lens"
	"github.com/livelens/lens/api"
	bt "github.com/livelens/lens/bubbletea"
	lensjson "github.com/livelens/lens/json"
)

const defaultBaseURL = "http://localhost:8080"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lens: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse flags.
	var (
		baseURL      = flag.String("base-url", "", "Analytics backend URL")
		token        = flag.String("token", "", "Backend API token (overrides LENS_API_TOKEN)")
		list         = flag.Bool("list", false, "List videos and exit")
		videoID      = flag.String("video", "", "Video ID to watch processing status for")
		liveID       = flag.String("live", "", "Live session ID to stream metrics and advice from")
		uploadGlob   = flag.String("upload", "", "Glob pattern of video files to upload before starting")
		sessionPath  = flag.String("session", "", "Path to chat session file to resume")
		providerFlag = flag.String("provider", "", "Chat provider: backend, gemini (default: backend)")
		apiKey       = flag.String("api-key", "", "Gemini API key (overrides GEMINI_API_KEY)")
		stale        = flag.Bool("reconnect-on-stale", false, "Force a reconnect when a live stream goes quiet")
	)
	flag.Parse()

	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Build the backend client. Env vars are read here and passed as values.
	client := newClient(*baseURL, *token, *stale,
		os.Getenv("LENS_BASE_URL"), os.Getenv("LENS_API_TOKEN"))

	// -list prints the video inventory and exits without starting the TUI.
	if *list {
		return listVideos(ctx, client, os.Stdout)
	}

	// Resolve the chat provider.
	streamer, err := resolveStreamer(ctx, *providerFlag, *apiKey,
		os.Getenv("GEMINI_API_KEY"), client)
	if err != nil {
		return err
	}

	// Upload videos before the TUI takes over the terminal, so progress
	// can go to stderr.
	video := *videoID
	if *uploadGlob != "" {
		id, err := uploadVideos(ctx, client, *uploadGlob)
		if err != nil {
			return err
		}
		if video == "" {
			video = id
		}
	}

	// Fail fast on a bad video ID before the TUI takes over.
	if video != "" && *uploadGlob == "" {
		v, err := client.GetVideo(ctx, video)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Watching %q (%s)\n", v.Title, v.Status)
	}

	// Load or create chat session.
	session, err := loadOrCreateSession(*sessionPath, video)
	if err != nil {
		return err
	}

	// Open the processing and live watches requested by flags.
	events, err := startWatches(ctx, client, video, *liveID)
	if err != nil {
		return err
	}

	// Build chat function closure for the TUI.
	chatFn := func(ctx context.Context, req lens.ChatRequest, onEvent func(lens.Event)) error {
		return streamer.StreamChat(ctx, req, func(token string) {
			onEvent(lens.EventToken{Text: token})
		})
	}

	// Create and run TUI.
	tuiModel := bt.New(chatFn, &session, events, lens.DefaultTheme())
	if err := bt.Run(ctx, tuiModel); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}

	// Save session on exit.
	if *sessionPath != "" {
		if err := lensjson.Save(*sessionPath, session); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	} else if len(session.Messages) > 0 {
		// Auto-save to default location.
		savePath := defaultSessionPath(session.ID)
		if err := lensjson.Save(savePath, session); err != nil {
			return fmt.Errorf("auto-save session: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Session saved to %s\n", savePath)
	}

	return nil
}

// newClient builds the backend client from flag and env values. Flags win
// over env vars.
func newClient(baseURLFlag, tokenFlag string, stale bool, baseURLEnv, tokenEnv string) *api.Client {
	baseURL := baseURLFlag
	if baseURL == "" {
		baseURL = baseURLEnv
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	token := tokenFlag
	if token == "" {
		token = tokenEnv
	}

	var opts []api.Option
	if token != "" {
		opts = append(opts, api.WithToken(token))
	}
	if stale {
		opts = append(opts, api.WithReconnectOnStale())
	}
	return api.New(baseURL, opts...)
}

// uploadVideos uploads every file matching the glob and returns the ID of
// the first uploaded video, so -upload without -video watches the upload.
func uploadVideos(ctx context.Context, client *api.Client, pattern string) (string, error) {
	paths, err := expandUploads(pattern)
	if err != nil {
		return "", err
	}
	var firstID string
	for _, path := range paths {
		v, err := client.UploadVideo(ctx, path, titleFromPath(path))
		if err != nil {
			return "", fmt.Errorf("upload %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "Uploaded %s as %s\n", path, v.ID)
		if firstID == "" {
			firstID = v.ID
		}
	}
	return firstID, nil
}

// listVideos prints the backend's video inventory as a table.
func listVideos(ctx context.Context, client *api.Client, out io.Writer) error {
	videos, err := client.ListVideos(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tGMV\tPEAK\tCREATED")
	for _, v := range videos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%d\t%s\n",
			v.ID, v.Title, v.Status, v.GMV, v.PeakViewers,
			v.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func loadOrCreateSession(sessionPath, videoID string) (lens.ChatSession, error) {
	// Load existing session if path provided.
	if sessionPath != "" {
		s, err := lensjson.Load(sessionPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return lens.ChatSession{}, fmt.Errorf("load session: %w", err)
		}
		if err == nil {
			return s, nil
		}
		// Missing file: start fresh, save will create it on exit.
	}

	// Create new session.
	now := time.Now()
	return lens.ChatSession{
		ID:        fmt.Sprintf("%d", now.UnixNano()),
		VideoID:   videoID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func defaultSessionPath(id string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".lens", "sessions", id+".json")
}
