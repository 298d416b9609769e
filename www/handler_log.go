package www

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/angas/strompris-go/database"
	"github.com/angas/strompris-go/logging"
)

type LogReader interface {
	GetLogEntries(ctx context.Context, q database.LogQuery) ([]database.LogEntryRow, error)
}

// NewLogHandler pages through the log table, optionally narrowed to the
// entries of one request (?requestId=).
func NewLogHandler(logger *slog.Logger, logs LogReader, tm *TemplateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := database.LogQuery{
			MinLevel:  slog.LevelDebug,
			RequestID: r.URL.Query().Get("requestId"),
			Page:      1,
			PageSize:  25,
		}
		if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
			q.Page = p
		}
		if ps, err := strconv.Atoi(r.URL.Query().Get("pageSize")); err == nil && ps > 0 {
			q.PageSize = ps
		}
		if level := r.URL.Query().Get("level"); level != "" {
			q.MinLevel = logging.LevelFromString(&level)
		}

		entries, err := logs.GetLogEntries(r.Context(), q)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		data := struct {
			Page      int
			NextPage  int
			PageSize  int
			Level     string
			RequestID string
			Entries   []database.LogEntryRow
		}{
			Page:      q.Page,
			NextPage:  q.Page + 1,
			PageSize:  q.PageSize,
			Level:     q.MinLevel.String(),
			RequestID: q.RequestID,
			Entries:   entries,
		}

		var buf bytes.Buffer
		if err := tm.ExecuteToWriter("log.html", data, &buf); err != nil {
			logger.ErrorContext(r.Context(), "handling log request", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		buf.WriteTo(w)
	}
}
