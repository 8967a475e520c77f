package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/loopmind-api/internal/api/shared"
	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/phrazzld/loopmind-api/internal/platform/logger"
	"github.com/phrazzld/loopmind-api/internal/redact"
	"github.com/phrazzld/loopmind-api/internal/service"
)

// TopicHandler handles topic-related HTTP requests
type TopicHandler struct {
	topicService service.TopicService
	logger       *slog.Logger
}

// NewTopicHandler creates a new TopicHandler
func NewTopicHandler(topicService service.TopicService, logger *slog.Logger) *TopicHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TopicHandler{
		topicService: topicService,
		logger:       logger.With(slog.String("component", "topic_handler")),
	}
}

// GenerateTopic handles POST /api/topics requests.
// It runs card generation synchronously and returns the stored topic, its
// cards and the post type summary. Images render in the background.
func (h *TopicHandler) GenerateTopic(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	var req GenerateTopicRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	log.Debug("generating topic", slog.Int("text_length", len(req.Text)))

	result, err := h.topicService.GenerateTopic(r.Context(), userID, service.GenerateTopicRequest{
		Text:  req.Text,
		Title: req.Title,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("topic created",
		slog.String("topic_id", result.Topic.ID.String()),
		slog.Int("card_count", len(result.Cards)))
	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// ListTopics handles GET /api/topics requests.
func (h *TopicHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	topics, err := h.topicService.ListTopics(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if topics == nil {
		topics = []*domain.Topic{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TopicListResponse{Topics: topics})
}

// GetTopic handles GET /api/topics/{topicID} requests.
func (h *TopicHandler) GetTopic(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ids, ok := handleUserIDAndPathUUIDs(w, r, log, "topicID")
	if !ok {
		return
	}

	detail, err := h.topicService.GetTopic(r.Context(), userID, ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, detail)
}

// MarkLearnt handles POST /api/topics/{topicID}/cards/{cardID}/learnt
// requests. Marking an already learnt card succeeds without counting twice.
func (h *TopicHandler) MarkLearnt(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ids, ok := handleUserIDAndPathUUIDs(w, r, log, "topicID", "cardID")
	if !ok {
		return
	}
	topicID, cardID := ids[0], ids[1]

	created, err := h.topicService.MarkLearnt(r.Context(), userID, topicID, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("card marked learnt",
		slog.String("topic_id", topicID.String()),
		slog.String("card_id", cardID.String()),
		slog.Bool("newly_learnt", created))
	shared.RespondWithJSON(w, r, http.StatusOK, MarkLearntResponse{CardID: cardID, Learnt: true})
}
