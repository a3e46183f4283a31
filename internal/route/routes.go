package route

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"binsorter/internal/config"
	"binsorter/internal/handler"
	"binsorter/internal/logger"
	"binsorter/internal/middleware"
	"binsorter/internal/repository"
	"binsorter/internal/service"
	"binsorter/internal/service/ai"
	"binsorter/internal/service/websocket"

	"github.com/go-chi/httprate"
)

// staticDir holds the upload page and its assets.
const staticDir = "static"

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers the API, the admin endpoints and static file serving,
// and wraps the mux with the CORS and admin middleware.
func SetupRoutes(classifier *service.Classifier, model handler.Readiness, hub *websocket.HubService,
	cfg *config.Config, logger *logger.Logger,
	classificationRepo repository.ClassificationRepository, detectionRepo repository.DetectionRepository) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	// Classification
	classify := http.Handler(handler.ClassifyHandler(classifier, logger))
	if cfg.ClassifyRateLimit > 0 {
		classify = httprate.Limit(cfg.ClassifyRateLimit, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		)(classify)
	}
	mux.Handle("/api/classify", classify)
	mux.HandleFunc("/api/bins", handler.BinsHandler(ai.ParamsFromConfig(cfg)))
	mux.HandleFunc("/api/feed", handler.FeedHandler(hub, logger))
	mux.HandleFunc("/health", handler.HealthHandler(model, cfg.DetectorBackend))

	// History
	mux.HandleFunc("/api/history", handler.HistoryHandler(cfg, logger, classificationRepo, detectionRepo))
	mux.HandleFunc("/api/history/view", handler.ViewHistoryImageHandler(cfg))
	mux.HandleFunc("/api/history/stats", handler.HistoryStatsHandler(logger, classificationRepo, detectionRepo))
	mux.HandleFunc("/api/history/delete", handler.DeleteHistoryHandler(cfg, logger, classificationRepo))
	mux.HandleFunc("/api/history/clear", handler.ClearHistoryHandler(cfg, logger, classificationRepo))

	// Log endpoints
	for _, name := range []string{"info", "warning", "error"} {
		file := name + ".log"
		mux.HandleFunc("/logs/"+name, handler.ShowLogsHandler(cfg, file))
		mux.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(logger, file))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, logger))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Automatic HTML handler mapping for example: /guide -> /static/guide.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	// Apply middleware
	return middleware.CORS(middleware.AuthMiddleware(cfg.AdminPassword, mux))
}
