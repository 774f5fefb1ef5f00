package usecase

import (
	"log/slog"
	"strings"

	"github.com/V4T54L/restnav/internal/aggregator"
	"github.com/V4T54L/restnav/internal/domain"
)

// DefaultResponseHandler picks an aggregator for responses fetched without
// one, such as the start link of a session.
type DefaultResponseHandler struct {
	invoker domain.Invoker
	views   domain.ViewOpener
	logger  *slog.Logger
}

func NewDefaultResponseHandler(invoker domain.Invoker, views domain.ViewOpener, logger *slog.Logger) *DefaultResponseHandler {
	return &DefaultResponseHandler{
		invoker: invoker,
		views:   views,
		logger:  logger,
	}
}

// Handle attaches a ListAggregator to a result list and an ObjectAggregator
// to a domain object. Other payloads stay in the log only.
func (h *DefaultResponseHandler) Handle(entry *domain.LogEntry, subType string) {
	var agg domain.Aggregator
	switch obj := entry.TransferObject().(type) {
	case *domain.ResultList:
		agg = aggregator.NewListAggregator(titleFromURL(entry.URL), h.invoker, h.views, h.logger)
	case *domain.TObject:
		agg = aggregator.NewObjectAggregator(obj.Title, h.invoker, h.views, h.logger)
	default:
		h.logger.Info("response kept in log without aggregator", "url", entry.URL, "state", entry.State().String())
		return
	}

	entry.AddAggregator(agg)
	if err := agg.Update(entry, subType); err != nil {
		h.logger.Error("default aggregator update failed", "kind", agg.Kind(), "url", entry.URL, "error", err)
	}
}

// titleFromURL names a list after the action that produced it,
// e.g. ".../actions/listAll/invoke" becomes "listAll".
func titleFromURL(rawURL string) string {
	segments := strings.Split(strings.TrimRight(rawURL, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		s := segments[i]
		if s != "" && s != "invoke" {
			return s
		}
	}
	return rawURL
}
