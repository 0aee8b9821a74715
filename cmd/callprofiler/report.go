package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/callprofiler/callprofiler/internal/calltree"
	"github.com/callprofiler/callprofiler/internal/errorutil"
	"github.com/callprofiler/callprofiler/internal/event"
	"github.com/callprofiler/callprofiler/internal/report"
	"github.com/callprofiler/callprofiler/internal/storageutil"
	"github.com/callprofiler/callprofiler/internal/summary"
)

func (env *environment) postReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	s := sentry.StartSpan(ctx, "request.body")
	s.Description = "Read request body"
	body, err := io.ReadAll(r.Body)
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s = sentry.StartSpan(ctx, "json.unmarshal")
	s.Description = "Unmarshal trace"
	var trace event.Trace
	err = json.Unmarshal(body, &trace)
	s.Finish()
	if err != nil {
		log.Err(err).Msg("trace can't be unmarshaled")
		hub.CaptureException(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := trace.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s = sentry.StartSpan(ctx, "calltree.build")
	s.Description = "Build the call tree"
	tree, err := calltree.Build(trace.Events)
	s.Finish()
	if err != nil {
		if errors.Is(err, errorutil.ErrMalformedTrace) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	sum := summary.Summarize(tree)

	s = sentry.StartSpan(ctx, "report.render")
	s.Description = "Render the HTML report"
	doc, err := report.Render(tree, sum, report.Options{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	})
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if env.archive != nil {
		s = sentry.StartSpan(ctx, "archive.write")
		s.Description = "Archive the raw trace"
		err = storageutil.CompressedWrite(ctx, env.archive, archivePath(trace), trace)
		s.Finish()
		if err != nil {
			// The report is already rendered, a failed archive write
			// shouldn't fail the request.
			log.Err(err).Str("trace", trace.Name).Msg("trace can't be archived")
			hub.CaptureException(err)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(doc)
}

func archivePath(t event.Trace) string {
	return fmt.Sprintf("traces/%s/%s", t.Name, uuid.New().String())
}
