package api

import (
	"context"
	"embed"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mlecomte/toitsol/internal/narrative"
	"github.com/mlecomte/toitsol/internal/pipeline"
)

//go:embed templates/*
var templateFS embed.FS

// Evaluator runs the full address evaluation. Satisfied by
// pipeline.Evaluator; tests substitute a stub.
type Evaluator interface {
	Evaluate(ctx context.Context, address string) (*pipeline.Evaluation, error)
}

type Server struct {
	evaluator Evaluator
	port      string
	tmpl      *template.Template
	commenter *narrative.Generator
}

func NewServer(evaluator Evaluator, port string) *Server {
	funcs := template.FuncMap{
		"deref": func(f *float64) float64 {
			if f == nil {
				return 0
			}
			return *f
		},
	}
	tmpl := template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

	// AI commentary is optional - may not have API key
	var commenter *narrative.Generator
	if gen, err := narrative.NewGenerator(); err != nil {
		log.Printf("AI commentary disabled: %v", err)
	} else {
		commenter = gen
	}

	return &Server{
		evaluator: evaluator,
		port:      port,
		tmpl:      tmpl,
		commenter: commenter,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/evaluate", s.handleAPIEvaluate)
	mux.HandleFunc("/card.png", s.handleCard)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on :%s", s.port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
