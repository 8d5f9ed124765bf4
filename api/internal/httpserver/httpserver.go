package httpserver

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"task-helper/api/internal/handle"
)

// Routes собирает все маршруты API и статику из publicDir.
func Routes(h *handle.Handle, publicDir string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /api/books", h.Books)
	mux.HandleFunc("POST /api/upload-book", h.UploadBook)
	mux.HandleFunc("POST /api/task/find", h.Find)
	mux.HandleFunc("POST /api/task/strict", h.Strict)
	mux.HandleFunc("POST /api/task/smart", h.Smart)
	mux.HandleFunc("POST /api/image-ocr", h.ImageOCR)
	mux.HandleFunc("GET /api/ocr/log", h.OCRLog)
	mux.HandleFunc("POST /api/ocr/clear", h.OCRClear)
	mux.HandleFunc("POST /api/speech/sentences", h.Sentences)
	mux.HandleFunc("POST /api/speech", h.Speech)
	// без этого GET /api/... уходит в файловый сервер и отвечает HTML
	mux.Handle("/api/", apiFallback(mux))

	if st, err := os.Stat(publicDir); err == nil && st.IsDir() {
		mux.Handle("GET /", http.FileServer(http.Dir(publicDir)))
	} else {
		mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("task-helper api"))
		})
	}

	return RequestLog(Recover(mux))
}

// Run слушает addr до отмены ctx, затем даёт активным запросам до shutdownTimeout.
func Run(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("http server shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	return nil
}

var apiMethods = []string{http.MethodGet, http.MethodPost}

// apiFallback: 405 с Allow, если путь есть под другим методом, иначе JSON 404.
func apiFallback(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var allow []string
		for _, m := range apiMethods {
			if m == r.Method {
				continue
			}
			probe := r.Clone(r.Context())
			probe.Method = m
			if _, pattern := mux.Handler(probe); pattern != "" && pattern != "/api/" && !strings.HasSuffix(pattern, " /") {
				allow = append(allow, m)
			}
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if len(allow) > 0 {
			w.Header().Set("Allow", strings.Join(allow, ", "))
			w.WriteHeader(http.StatusMethodNotAllowed)
			_, _ = w.Write([]byte(`{"error":"method not allowed"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})
}
