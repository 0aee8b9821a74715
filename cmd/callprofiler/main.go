package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/CAFxX/httpcompression"
	"github.com/dgraph-io/badger/v4"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"

	"github.com/callprofiler/callprofiler/internal/httputil"
	"github.com/callprofiler/callprofiler/internal/logutil"
	"github.com/callprofiler/callprofiler/internal/storageprovider"
	"github.com/callprofiler/callprofiler/internal/storageutil"
)

type environment struct {
	config ServiceConfig

	// archive is nil when trace archiving is disabled.
	archive       storageutil.ObjectHandler
	archiveBucket *blob.Bucket
	archiveDB     *badger.DB
}

var release string

func newEnvironment() (*environment, error) {
	var e environment
	var err error
	e.config, err = readConfig()
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	switch {
	case e.config.ArchiveBucketURL != "":
		e.archiveBucket, err = blob.OpenBucket(ctx, e.config.ArchiveBucketURL)
		if err != nil {
			return nil, err
		}
		e.archive = &storageprovider.Blob{Bucket: e.archiveBucket}
	case e.config.ArchiveBadgerPath != "":
		e.archiveDB, err = badger.Open(badger.DefaultOptions(e.config.ArchiveBadgerPath))
		if err != nil {
			return nil, err
		}
		e.archive = &storageprovider.Badger{DB: e.archiveDB}
	}
	return &e, nil
}

func (e *environment) shutdown() {
	if e.archiveBucket != nil {
		if err := e.archiveBucket.Close(); err != nil {
			sentry.CaptureException(err)
		}
	}
	if e.archiveDB != nil {
		if err := e.archiveDB.Close(); err != nil {
			sentry.CaptureException(err)
		}
	}
	sentry.Flush(5 * time.Second)
}

func (e *environment) newRouter() (*httprouter.Router, error) {
	compress, err := httpcompression.DefaultAdapter()
	if err != nil {
		return nil, err
	}

	routes := []struct {
		method  string
		path    string
		handler http.HandlerFunc
	}{
		{http.MethodGet, "/health", e.getHealth},
		{http.MethodPost, "/report", e.postReport},
	}

	router := httprouter.New()

	for _, route := range routes {
		handler := compress(httputil.DecompressPayload(route.handler))
		router.Handler(route.method, route.path, handler)
	}

	return router, nil
}

func main() {
	logutil.ConfigureLogger()

	env, err := newEnvironment()
	if err != nil {
		log.Fatal().Err(err).Msg("error setting up environment")
	}

	err = sentry.Init(sentry.ClientOptions{
		Dsn:              env.config.SentryDSN,
		EnableTracing:    true,
		Environment:      env.config.Environment,
		Release:          release,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("can't initialize sentry")
	}

	router, err := env.newRouter()
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal().Err(err).Msg("error setting up the router")
	}

	server := http.Server{
		Addr:    ":" + strconv.Itoa(env.config.Port),
		Handler: sentryhttp.New(sentryhttp.Options{}).Handle(router),
	}

	waitForShutdown := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c

		cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(cctx); err != nil {
			sentry.CaptureException(err)
			log.Err(err).Msg("error shutting down server")
		}

		close(waitForShutdown)
	}()

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		sentry.CaptureException(err)
		log.Err(err).Msg("server failed")
	}

	<-waitForShutdown

	// Shutdown the rest of the environment after the HTTP connections are closed
	env.shutdown()
}

func (e *environment) getHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
