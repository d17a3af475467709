package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mlecomte/toitsol/internal/mapimg"
	"github.com/mlecomte/toitsol/internal/pipeline"
)

const evaluateTimeout = 90 * time.Second

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := IndexData{Address: strings.TrimSpace(r.URL.Query().Get("address"))}
	if data.Address != "" {
		ctx, cancel := context.WithTimeout(r.Context(), evaluateTimeout)
		defer cancel()

		ev, err := s.evaluator.Evaluate(ctx, data.Address)
		if err != nil {
			var uf pipeline.UserFacing
			if errors.As(err, &uf) {
				data.ErrorMessage = uf.UserMessage()
			} else {
				log.Printf("evaluate %q: %v", data.Address, err)
				data.ErrorMessage = "Une erreur interne est survenue, réessayez plus tard."
			}
		} else {
			view := newResultView(ev)
			if s.commenter != nil {
				commentCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
				comment, err := s.commenter.Comment(commentCtx, ev)
				cancel()
				if err != nil {
					log.Printf("AI commentary: %v", err)
				} else {
					view.AIComment = comment
				}
			}
			data.Result = view
		}
	}

	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("template error: %v", err)
	}
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handleAPIEvaluate(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "missing address parameter", Code: "missing_address"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), evaluateTimeout)
	defer cancel()

	ev, err := s.evaluator.Evaluate(ctx, address)
	if err != nil {
		var uf pipeline.UserFacing
		if errors.As(err, &uf) {
			writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: uf.UserMessage(), Code: errorCode(err)})
			return
		}
		log.Printf("evaluate %q: %v", address, err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error", Code: "internal"})
		return
	}

	writeJSON(w, http.StatusOK, evaluateResponse{
		Evaluation:       ev,
		FootprintGeoJSON: footprintGeoJSON(ev),
	})
}

// evaluateResponse is the Evaluation record plus the footprint as a
// GeoJSON Feature, for consumers that feed a map directly.
type evaluateResponse struct {
	*pipeline.Evaluation
	FootprintGeoJSON json.RawMessage `json:"footprint_geojson"`
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		http.Error(w, "missing address parameter", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), evaluateTimeout)
	defer cancel()

	ev, err := s.evaluator.Evaluate(ctx, address)
	if err != nil {
		var uf pipeline.UserFacing
		if errors.As(err, &uf) {
			http.Error(w, uf.UserMessage(), http.StatusUnprocessableEntity)
			return
		}
		log.Printf("card %q: %v", address, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data, err := mapimg.Render(ev)
	if err != nil {
		log.Printf("card render %q: %v", address, err)
		http.Error(w, "card rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
