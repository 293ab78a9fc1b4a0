package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/domain-enrich/internal/enrich"
	"github.com/sells-group/domain-enrich/internal/jobs"
	"github.com/sells-group/domain-enrich/internal/model"
	"github.com/sells-group/domain-enrich/internal/schema"
	"github.com/sells-group/domain-enrich/internal/table"
)

const maxUploadBytes = 32 << 20

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the enrichment HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		engine := newEngine()
		rows := enrich.NewRowEnricher(engine)
		store := jobs.NewStore(time.Duration(cfg.Jobs.RetentionHours) * time.Hour)
		store.StartSweeper(ctx, time.Duration(cfg.Jobs.SweepIntervalMins)*time.Minute)
		runner := jobs.NewRunner(store, rows, jobs.WithWorkers(cfg.Jobs.Workers))

		router := buildRouter(ctx, store, runner, engine, rows)

		port := resolvePort(servePort, cfg.Server.Port)
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// resolvePort prefers the flag value over the config value.
func resolvePort(flag, config int) int {
	if flag != 0 {
		return flag
	}
	return config
}

// buildRouter wires all HTTP routes. ctx outlives individual requests and
// bounds the lifetime of background batch jobs.
func buildRouter(ctx context.Context, store *jobs.Store, runner *jobs.Runner, engine *enrich.Engine, rows jobs.Enricher) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/enrich", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			CompanyName string         `json:"company_name"`
			Location    string         `json:"location"`
			Address     *model.Address `json:"address"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(body.CompanyName) == "" {
			writeJSONError(w, http.StatusBadRequest, "company_name is required")
			return
		}

		addr := model.ParseLocation(body.Location)
		if body.Address != nil {
			addr = *body.Address
		}

		result := engine.Enrich(req.Context(), model.EnrichmentRequest{
			CompanyName: body.CompanyName,
			Address:     addr,
		})
		writeJSON(w, http.StatusOK, result)
	})

	r.Post("/lookup", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			CompanyName string `json:"company_name"`
			Location    string `json:"location"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(body.CompanyName) == "" {
			writeJSONError(w, http.StatusBadRequest, "company_name is required")
			return
		}

		writeJSON(w, http.StatusOK, rows.EnrichRow(req.Context(), body.CompanyName, body.Location))
	})

	r.Post("/upload-csv", func(w http.ResponseWriter, req *http.Request) {
		t, cols, status, msg := readUpload(req)
		if msg != "" {
			writeJSONError(w, status, msg)
			return
		}

		jobID := store.Create(t, cols)
		runner.Start(ctx, jobID)

		writeJSON(w, http.StatusAccepted, map[string]any{
			"job_id":     jobID,
			"status":     string(model.JobStatusPending),
			"total_rows": len(t.Rows),
		})
	})

	r.Get("/status/{jobID}", func(w http.ResponseWriter, req *http.Request) {
		snap, ok := store.Snapshot(chi.URLParam(req, "jobID"))
		if !ok {
			writeJSONError(w, http.StatusNotFound, "job not found")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})

	r.Get("/download/{jobID}", func(w http.ResponseWriter, req *http.Request) {
		jobID := chi.URLParam(req, "jobID")
		snap, ok := store.Snapshot(jobID)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "job not found")
			return
		}
		if snap.Status != model.JobStatusCompleted {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("job is %s, not completed", snap.Status))
			return
		}

		output, _ := store.Output(jobID)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=enriched_%s.csv", jobID))
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, output)
	})

	return r
}

// readUpload extracts and validates the uploaded table. A non-empty message
// means the request must be rejected with the given status.
func readUpload(req *http.Request) (*table.Table, schema.Columns, int, string) {
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, schema.Columns{}, http.StatusBadRequest, "invalid multipart form"
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		return nil, schema.Columns{}, http.StatusBadRequest, "file field is required"
	}
	defer file.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, schema.Columns{}, http.StatusBadRequest, "could not read file"
	}

	var t *table.Table
	var cols schema.Columns
	if strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		parsed, parseErr := table.ParseXLSX(raw)
		if parseErr != nil {
			return nil, schema.Columns{}, http.StatusBadRequest, "could not parse file as XLSX"
		}
		t, cols, err = schema.ValidateTable(parsed)
	} else {
		t, cols, err = schema.Validate(raw)
	}
	if err != nil {
		return nil, schema.Columns{}, http.StatusBadRequest, err.Error()
	}

	return t, cols, 0, ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
