package logging

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.elastic.co/ecszerolog"
)

// Options configures the global logger.
type Options struct {
	App              string
	Level            string
	ElasticsearchURL string
	// Index is appended to ElasticsearchURL, e.g. "records-client".
	Index string
	// Console defaults to stderr.
	Console io.Writer
}

// ElasticsearchWriter posts each JSON log line as a document
type ElasticsearchWriter struct {
	URL    string
	Client *http.Client
}

func (ew ElasticsearchWriter) Write(p []byte) (int, error) {
	client := ew.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Post(ew.URL+"/_doc", "application/json", bytes.NewReader(p))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("elasticsearch returned %d", resp.StatusCode)
	}
	return len(p), nil
}

// Setup installs the global zerolog logger. Console output is always on; ECS
// documents are additionally shipped to Elasticsearch when a URL is given.
func Setup(opts Options) error {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	consoleWriter := zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}

	if opts.ElasticsearchURL == "" {
		log.Logger = zerolog.New(consoleWriter).With().Str("app", opts.App).Timestamp().Logger()
		return nil
	}

	if opts.Index == "" {
		return fmt.Errorf("elasticsearch index is required")
	}

	ecsLogger := ecszerolog.New(&ElasticsearchWriter{
		URL:    strings.TrimRight(opts.ElasticsearchURL, "/") + "/" + opts.Index,
		Client: &http.Client{Timeout: 5 * time.Second},
	})

	multi := zerolog.MultiLevelWriter(ecsLogger, consoleWriter)
	log.Logger = zerolog.New(multi).With().Str("app", opts.App).Timestamp().Logger()
	return nil
}
