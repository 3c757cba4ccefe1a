package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/matzehuels/perspectives/pkg/errors"
	"github.com/matzehuels/perspectives/pkg/io"
	"github.com/matzehuels/perspectives/pkg/pipeline"
)

// errorResponse is the JSON body of a failed request.
type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseRenderQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		if r.Context().Err() != nil {
			return // client went away
		}
		s.logger.Error("render failed", "text", opts.Text, "err", err)
		writeError(w, err)
		return
	}

	cacheStatus := "MISS"
	if res.CacheHit {
		cacheStatus = "HIT"
	}
	h := w.Header()
	h.Set("Content-Type", res.Format.ContentType())
	h.Set("Content-Length", strconv.Itoa(len(res.Artifact)))
	h.Set("Cache-Control", "public, max-age=86400")
	h.Set("X-Cache", cacheStatus)
	h.Set("X-Image-Width", strconv.Itoa(res.Width))
	w.Write(res.Artifact)
}

// parseRenderQuery overlays query parameters on the server defaults.
func (s *Server) parseRenderQuery(q url.Values) (pipeline.Options, error) {
	opts := s.defaults
	opts.Text = q.Get("text")
	opts.Logger = nil

	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidSize, "size must be an integer, got %q", v)
		}
		if n <= 0 {
			return opts, errors.ValidateCanvasSize(n, pipeline.MaxCanvasSize)
		}
		opts.CanvasSize = n
	}
	if v := q.Get("warp"); v != "" {
		warp, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "warp must be a boolean, got %q", v)
		}
		opts.SkipWarp = !warp
	}
	if v := q.Get("shrink"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "shrink must be a number, got %q", v)
		}
		if err := errors.ValidateShrinkFactor(f); err != nil {
			return opts, err
		}
		opts.ShrinkFactor = f
	}
	if v := q.Get("background"); v != "" {
		opts.Background = v
	}
	if v := q.Get("format"); v != "" {
		f, err := io.ParseFormat(v)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}
	opts.Refresh = q.Has("refresh")

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := errors.GetCode(err)
	if errors.IsValidation(err) || code == errors.ErrCodeInvalidFont {
		status = http.StatusBadRequest
	}
	if code == "" {
		code = errors.ErrCodeInternal
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Code: code, Message: errors.UserMessage(err)})
}
