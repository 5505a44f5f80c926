package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"janitorr-hq/overseer/pkg/jellyfin"
	"janitorr-hq/overseer/pkg/policystore"
	"janitorr-hq/overseer/pkg/schedule"
	"janitorr-hq/overseer/pkg/telemetry/metrics"
)

type mediaEntry struct {
	Info      jellyfin.Item `json:"info"`
	ImagePath *string       `json:"image_path"`
}

// jellyfinClient builds a client from the Jellyfin section of doc.
func (s *Server) jellyfinClient(doc policystore.Document) (*jellyfin.Client, error) {
	opts := []jellyfin.Option{jellyfin.WithLogger(s.opts.Logger)}
	if s.opts.HTTPClient != nil {
		opts = append(opts, jellyfin.WithHTTPClient(s.opts.HTTPClient))
	} else {
		opts = append(opts, jellyfin.WithTimeout(s.config().Jellyfin.RequestTimeout))
	}
	return jellyfin.FromSettings(doc.Jellyfin(), opts...)
}

// currentJellyfin reads the Janitorr configuration and builds a client.
func (s *Server) currentJellyfin() (*jellyfin.Client, error) {
	doc, err := s.opts.Source.Policy().Read()
	if err != nil {
		return nil, jellyfin.ErrNotConfigured
	}
	return s.jellyfinClient(doc)
}

// lookupMedia resolves scheduled titles against Jellyfin, one request at a
// time, up to the configured limit. Titles without a match are left out.
func (s *Server) lookupMedia(ctx context.Context, doc policystore.Document, sched schedule.Schedule) map[string]mediaEntry {
	out := map[string]mediaEntry{}

	client, err := s.jellyfinClient(doc)
	if err != nil {
		return out
	}

	ctx, span := s.startSpan(ctx, "dashboard.media_lookup")
	defer func() {
		span.SetAttributes(attribute.Int("overseer.media.matched", len(out)))
		span.End()
	}()

	limit := s.config().Jellyfin.MaxMediaLookups
	seen := 0
	for _, rec := range sched.Records() {
		if _, ok := out[rec.Title]; ok {
			continue
		}
		if seen >= limit {
			s.logger.DebugContext(ctx, "media lookup limit reached", "limit", limit)
			break
		}
		if ctx.Err() != nil {
			break
		}
		seen++

		item, err := s.searchItem(ctx, client, rec.Title)
		if err != nil {
			if errors.Is(err, jellyfin.ErrNotFound) {
				s.logger.WarnContext(ctx, "no jellyfin match", "title", rec.Title)
			} else {
				s.logger.WarnContext(ctx, "jellyfin lookup failed", "title", rec.Title, "error", err)
			}
			continue
		}

		entry := mediaEntry{Info: item}
		if p := jellyfin.ImagePath(item); p != "" {
			entry.ImagePath = &p
		}
		out[rec.Title] = entry
	}
	return out
}

func (s *Server) searchItem(ctx context.Context, client *jellyfin.Client, title string) (jellyfin.Item, error) {
	start := time.Now()
	item, err := client.SearchItem(ctx, title)
	s.opts.Metrics.RecordJellyfinLookup(metrics.ResultFor(err, jellyfin.ErrNotFound), time.Since(start))
	return item, err
}

func (s *Server) handleMediaInfo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" || id == "undefined" {
		writeError(w, http.StatusBadRequest, "Invalid media ID")
		return
	}

	client, err := s.currentJellyfin()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Jellyfin not configured")
		return
	}

	ctx := r.Context()
	start := time.Now()
	item, err := client.ItemByID(ctx, id)
	s.opts.Metrics.RecordJellyfinLookup(metrics.ResultFor(err, jellyfin.ErrNotFound), time.Since(start))

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, item)
	case errors.Is(err, jellyfin.ErrNotFound):
		writeError(w, http.StatusNotFound, "Item not found")
	case errors.Is(err, jellyfin.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "Invalid media ID")
	default:
		s.logger.ErrorContext(ctx, "error fetching media info", "item_id", id, "error", err)
		writeError(w, http.StatusBadGateway, "failed to fetch media info")
	}
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	id, imageType := r.PathValue("id"), r.PathValue("type")

	client, err := s.currentJellyfin()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Jellyfin not configured")
		return
	}
	if len(id) < jellyfin.MinItemIDLength {
		s.logger.WarnContext(r.Context(), "invalid jellyfin id", "item_id", id, "length", len(id))
		writeError(w, http.StatusBadRequest, "Invalid ID format")
		return
	}
	if !jellyfin.ValidImageType(imageType) {
		writeError(w, http.StatusBadRequest, "Invalid image type")
		return
	}

	ctx := r.Context()
	img, err := client.Image(ctx, id, imageType)
	switch {
	case err == nil:
	case errors.Is(err, jellyfin.ErrNotFound):
		writeError(w, http.StatusNotFound, "Image not found")
		return
	default:
		s.logger.ErrorContext(ctx, "error fetching image", "item_id", id, "error", err)
		writeError(w, http.StatusBadGateway, "Error fetching image")
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

func (s *Server) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s.opts.Tracer == nil {
		return ctx, noop.Span{}
	}
	return s.opts.Tracer.Start(ctx, name)
}
