package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"market-assist-be/internal/assistant"
	"market-assist-be/internal/config"
	"market-assist-be/internal/dto"
	"market-assist-be/internal/entity"
	"market-assist-be/internal/pkg/logger"
	"market-assist-be/internal/ratelimit"
	"market-assist-be/internal/repository/contract"
	"market-assist-be/internal/service"
	"market-assist-be/pkg/events"
	pktNats "market-assist-be/pkg/nats"

	"github.com/go-playground/validator/v10"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ConnState is the lifecycle of one websocket connection.
type ConnState int

const (
	StateConnecting ConnState = iota
	StateConnected
	StateSessionActive
	StateClosing
	StateClosed
)

// Typed error codes surfaced to the client.
const (
	CodeValidation = "VALIDATION"
	CodeRateLimit  = "RATE_LIMIT"
	CodeSession    = "SESSION"
	CodeGeneration = "GENERATION"
)

// Session context values are scalars; this bounds each string value.
const maxContextValueLength = 512

const greeting = "Olá! Sou o assistente virtual do marketplace. Como posso ajudar?"

// EventSink receives the outbound events a handler produces. The websocket
// client implements it; tests substitute a recorder.
type EventSink interface {
	Emit(event dto.OutboundEvent)
}

// SessionRelay repeats a frame to the other clients of a session group. The
// hub implements it.
type SessionRelay interface {
	RelayToSession(sessionId uuid.UUID, data []byte, exclude *Client)
}

// HandlerDeps carries everything a connection handler needs.
type HandlerDeps struct {
	Sessions  service.ISessionService
	Messages  contract.ChatMessageRepository
	Analytics contract.ChatAnalyticsRepository
	Processor *assistant.ResponseProcessor
	Detector  *assistant.EscalationDetector
	Limiter   *ratelimit.Limiter
	Telemetry service.ITelemetryService
	NatsPub   *pktNats.Publisher
	Validator *validator.Validate
	Logger    logger.ILogger
	Cfg       config.AssistantConfig
}

// SessionHandler is the per-connection protocol state machine. It owns the
// connection's session binding and processes inbound events strictly in
// arrival order; every message event resolves to exactly one of reply,
// escalation, rate-limit error, or error.
type SessionHandler struct {
	ctx    context.Context
	deps   HandlerDeps
	owner  entity.Owner
	sink   EventSink
	relay  SessionRelay
	client *Client

	state   ConnState
	session *entity.ChatSession
	tracker *assistant.AnalyticsTracker
}

func NewSessionHandler(ctx context.Context, deps HandlerDeps, owner entity.Owner, sink EventSink, relay SessionRelay, client *Client) *SessionHandler {
	return &SessionHandler{
		ctx:     ctx,
		deps:    deps,
		owner:   owner,
		sink:    sink,
		relay:   relay,
		client:  client,
		state:   StateConnecting,
		tracker: assistant.NewAnalyticsTracker(deps.Analytics, uuid.Nil),
	}
}

func (h *SessionHandler) State() ConnState {
	return h.state
}

// OnConnect acknowledges the upgrade and moves to CONNECTED.
func (h *SessionHandler) OnConnect(connectionId string) {
	h.state = StateConnected
	h.sink.Emit(dto.NewConnectionEstablishedEvent(greeting, connectionId))
}

// HandleFrame processes one inbound frame to completion before the caller
// reads the next, which is what keeps per-connection ordering strict. Frames
// are flat JSON objects discriminated by their "type" field.
func (h *SessionHandler) HandleFrame(raw []byte) {
	if h.state == StateClosing || h.state == StateClosed {
		return
	}

	var head dto.FrameHead
	if err := json.Unmarshal(raw, &head); err != nil {
		h.emitError(CodeValidation, "Formato de evento inválido.")
		return
	}

	switch head.Type {
	case dto.EventSessionInit:
		h.handleSessionInit(raw)
	case dto.EventMessage:
		h.handleMessage(raw)
	case dto.EventTyping:
		h.handleTyping(raw)
	case dto.EventSatisfactionRating:
		h.handleSatisfactionRating(raw)
	case dto.EventSessionClose:
		h.handleSessionClose()
	default:
		h.emitError(CodeValidation, fmt.Sprintf("Tipo de evento desconhecido: %q.", head.Type))
	}
}

// OnDisconnect flushes analytics best-effort. The session stays active so the
// user can resume it from a new connection.
func (h *SessionHandler) OnDisconnect() {
	if h.state == StateClosed {
		return
	}
	h.state = StateClosed
	h.flushAnalytics()
}

func (h *SessionHandler) handleSessionInit(raw []byte) {
	var event dto.SessionInitEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		h.emitError(CodeValidation, "Payload de inicialização inválido.")
		return
	}
	if err := h.validateSessionContext(event.Context); err != nil {
		h.emitTypedError(err)
		return
	}

	if h.state == StateSessionActive {
		// Re-init on a live connection rebinds, after flushing what we have.
		h.flushAnalytics()
	}

	session, created, err := h.deps.Sessions.GetOrCreate(h.ctx, h.owner, event.SessionId, event.Context)
	if err != nil {
		h.emitTypedError(err)
		return
	}

	h.bindSession(session)

	history, err := h.deps.Messages.FindRecentBySession(h.ctx, session.Id, h.deps.Cfg.HistoryReplaySize)
	if err != nil {
		h.deps.Logger.Warn("Assistant", "History replay failed", map[string]interface{}{
			"session_id": session.Id,
			"error":      err.Error(),
		})
		history = nil
	}

	entries := make([]dto.HistoryEntry, 0, len(history))
	for _, msg := range history {
		entries = append(entries, dto.HistoryEntry{
			MessageId: msg.Id,
			Sender:    string(msg.Sender),
			Content:   msg.Content,
			Timestamp: msg.CreatedAt,
		})
	}

	h.state = StateSessionActive
	h.sink.Emit(dto.NewSessionInitializedEvent(session.Id, !created, entries))
}

func (h *SessionHandler) handleMessage(raw []byte) {
	// A message before session_init implicitly starts a fresh session.
	if h.state != StateSessionActive {
		session, _, err := h.deps.Sessions.GetOrCreate(h.ctx, h.owner, nil, nil)
		if err != nil {
			h.emitTypedError(err)
			return
		}
		h.bindSession(session)
		h.state = StateSessionActive
		h.sink.Emit(dto.NewSessionInitializedEvent(session.Id, false, nil))
	}

	var event dto.MessageEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		h.emitError(CodeValidation, "Payload de mensagem inválido.")
		return
	}

	// Rate limiting comes before validation so abusive traffic never reaches
	// the heavier path. The limiter fails open on cache trouble.
	result := h.deps.Limiter.Check(h.ctx, h.owner.RateLimitIdentity())
	if !result.Allowed {
		h.emitTypedError(&assistant.RateLimitError{RetryAfter: result.RetryAfter})
		return
	}

	content, err := h.sanitizeContent(event.Content)
	if err != nil {
		h.emitTypedError(err)
		return
	}

	userMsg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: h.session.Id,
		Sender:        entity.SenderUser,
		Content:       content,
		CreatedAt:     time.Now(),
	}
	if err := h.deps.Messages.Create(h.ctx, userMsg); err != nil {
		h.deps.Logger.Error("Assistant", "Failed to persist user message", map[string]interface{}{
			"session_id": h.session.Id,
			"error":      err.Error(),
		})
		if h.deps.Telemetry != nil {
			h.deps.Telemetry.MessageFailed(h.session.Id, "persist_user_message")
		}
		h.emitError(CodeSession, "Não foi possível registrar sua mensagem. Tente novamente.")
		return
	}
	h.tracker.RecordUserMessage()

	if h.deps.Detector.Detect(content) {
		h.escalate(content)
		return
	}

	h.reply(content)
}

// reply drives generation for one user message: typing on, process, persist,
// typing off, emit. The processor never fails, it degrades to a fallback.
func (h *SessionHandler) reply(content string) {
	h.emitAndRelay(dto.NewTypingIndicatorEvent(string(entity.SenderAssistant), true))

	history, err := h.deps.Messages.FindRecentBySession(h.ctx, h.session.Id, h.deps.Cfg.MaxPromptHistory)
	if err != nil {
		history = nil
	}

	start := time.Now()
	result := h.deps.Processor.Process(h.ctx, h.session, content, history)
	elapsed := time.Since(start)

	assistantMsg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: h.session.Id,
		Sender:        entity.SenderAssistant,
		Content:       result.Reply,
		Metadata: map[string]interface{}{
			"intent":   string(result.Intent),
			"fallback": result.Fallback,
		},
		Cached:           result.Cached,
		ProcessingTimeMs: elapsed.Milliseconds(),
		CreatedAt:        time.Now(),
	}
	if err := h.deps.Messages.Create(h.ctx, assistantMsg); err != nil {
		h.deps.Logger.Error("Assistant", "Failed to persist assistant message", map[string]interface{}{
			"session_id": h.session.Id,
			"error":      err.Error(),
		})
		if h.deps.Telemetry != nil {
			h.deps.Telemetry.MessageFailed(h.session.Id, "persist_assistant_message")
		}
	}

	h.tracker.RecordAssistantMessage(elapsed)
	h.tracker.RecordTopic(result.Intent)
	if h.deps.Telemetry != nil {
		h.deps.Telemetry.MessageHandled(h.session.Id, elapsed, result.Fallback, result.Cached)
	}
	if err := h.deps.Sessions.Touch(h.ctx, h.session.Id); err != nil {
		h.deps.Logger.Warn("Assistant", "Failed to touch session", map[string]interface{}{"session_id": h.session.Id, "error": err.Error()})
	}

	h.emitAndRelay(dto.NewTypingIndicatorEvent(string(entity.SenderAssistant), false))
	h.emitAndRelay(dto.NewAssistantMessageEvent(
		assistantMsg.Id,
		string(entity.SenderAssistant),
		result.Reply,
		string(result.Intent),
		result.Cached,
		assistantMsg.CreatedAt,
	))
}

// escalate hands the conversation to human support instead of generating.
func (h *SessionHandler) escalate(content string) {
	category := h.deps.Detector.Category(content)
	escalation := h.deps.Detector.Escalate(h.session, content)

	systemMsg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: h.session.Id,
		Sender:        entity.SenderSystem,
		Content:       escalation.Message,
		Metadata:      map[string]interface{}{"escalation_category": category},
		CreatedAt:     time.Now(),
	}
	if err := h.deps.Messages.Create(h.ctx, systemMsg); err != nil {
		h.deps.Logger.Warn("Assistant", "Failed to persist escalation notice", map[string]interface{}{
			"session_id": h.session.Id,
			"error":      err.Error(),
		})
	}

	h.tracker.MarkEscalated()
	h.tracker.RecordAction("escalated_to_support", map[string]interface{}{"category": category})

	if h.deps.Telemetry != nil {
		h.deps.Telemetry.EscalationRaised(h.session.Id, category)
	}
	if h.deps.NatsPub != nil {
		event := events.New(events.TypeChatEscalated, map[string]interface{}{
			"session_id": h.session.Id.String(),
			"category":   category,
			"excerpt":    truncate(content, 200),
		})
		if err := h.deps.NatsPub.Publish(h.ctx, event); err != nil {
			h.deps.Logger.Warn("Assistant", "Failed to fan out escalation", map[string]interface{}{"error": err.Error()})
		}
	}

	h.emitAndRelay(dto.NewEscalationEvent(escalation.Message, category, escalation.Actions, escalation.ContactInfo))
}

func (h *SessionHandler) handleTyping(raw []byte) {
	if h.state != StateSessionActive {
		return
	}
	var event dto.TypingEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return
	}
	// Pass-through only: the sender's own tab already renders its typing state.
	h.relayOnly(dto.NewTypingIndicatorEvent(string(entity.SenderUser), event.IsTyping))
}

func (h *SessionHandler) handleSatisfactionRating(raw []byte) {
	if h.state != StateSessionActive {
		h.emitError(CodeSession, "Nenhuma sessão ativa para avaliar.")
		return
	}

	var event dto.SatisfactionRatingEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		h.emitError(CodeValidation, "Payload de avaliação inválido.")
		return
	}
	if err := h.deps.Validator.Struct(&event); err != nil {
		h.emitError(CodeValidation, "A avaliação deve ser uma nota de 1 a 5.")
		return
	}

	if err := h.deps.Sessions.SetSatisfaction(h.ctx, h.session.Id, event.Rating, event.Feedback); err != nil {
		h.emitTypedError(err)
		return
	}

	h.tracker.RecordAction("satisfaction_rating", map[string]interface{}{"rating": event.Rating})
	if event.Rating >= 4 {
		h.tracker.MarkResolved()
	}
	if h.deps.Telemetry != nil {
		h.deps.Telemetry.RatingSubmitted(h.session.Id, event.Rating)
	}

	h.sink.Emit(dto.NewSatisfactionRatingSavedEvent(h.session.Id, event.Rating))
}

func (h *SessionHandler) handleSessionClose() {
	if h.state != StateSessionActive {
		h.state = StateClosed
		return
	}

	h.state = StateClosing
	sessionId := h.session.Id

	if err := h.deps.Sessions.Close(h.ctx, sessionId); err != nil {
		h.deps.Logger.Warn("Assistant", "Failed to close session", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}
	h.flushAnalytics()

	h.sink.Emit(dto.NewSessionClosedEvent(sessionId))
	h.state = StateClosed
}

func (h *SessionHandler) bindSession(session *entity.ChatSession) {
	if h.client != nil && h.client.Hub != nil && h.client.SessionId != session.Id {
		if h.client.SessionId == uuid.Nil {
			h.client.SessionId = session.Id
			h.client.Hub.Bind(h.client)
		} else {
			h.client.Hub.Rebind(h.client, session.Id)
		}
	}
	h.session = session
	h.tracker.Rebind(session.Id)
}

// validateSessionContext bounds the client-supplied context map: a capped
// number of entries, scalar values only, string values length-limited.
func (h *SessionHandler) validateSessionContext(sessionContext map[string]interface{}) error {
	if len(sessionContext) == 0 {
		return nil
	}
	if len(sessionContext) > h.deps.Cfg.MaxContextEntries {
		return &assistant.ValidationError{
			Field:  "context",
			Reason: fmt.Sprintf("o contexto excede o limite de %d entradas", h.deps.Cfg.MaxContextEntries),
		}
	}
	for key, value := range sessionContext {
		switch v := value.(type) {
		case nil, bool, float64:
		case string:
			if len(v) > maxContextValueLength {
				return &assistant.ValidationError{
					Field:  "context",
					Reason: fmt.Sprintf("o valor de %q excede o limite de %d caracteres", key, maxContextValueLength),
				}
			}
		default:
			return &assistant.ValidationError{
				Field:  "context",
				Reason: fmt.Sprintf("o valor de %q deve ser um escalar", key),
			}
		}
	}
	return nil
}

// sanitizeContent trims, strips control runes, and bounds the length.
func (h *SessionHandler) sanitizeContent(content string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, content)
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return "", &assistant.ValidationError{Field: "content", Reason: "a mensagem não pode ser vazia"}
	}
	if len(cleaned) > h.deps.Cfg.MaxMessageLength {
		return "", &assistant.ValidationError{
			Field:  "content",
			Reason: fmt.Sprintf("a mensagem excede o limite de %d caracteres", h.deps.Cfg.MaxMessageLength),
		}
	}
	return cleaned, nil
}

func (h *SessionHandler) flushAnalytics() {
	if h.session == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.tracker.Flush(ctx); err != nil {
		h.deps.Logger.Warn("Assistant", "Analytics flush failed", map[string]interface{}{
			"session_id": h.session.Id,
			"error":      err.Error(),
		})
		return
	}
	if h.deps.Telemetry != nil {
		snap := h.tracker.Snapshot()
		h.deps.Telemetry.AnalyticsFlushed(h.session.Id, snap.Escalated, snap.AvgResponseTimeMs)
	}
}

func (h *SessionHandler) emitAndRelay(event dto.OutboundEvent) {
	h.sink.Emit(event)
	h.relayOnly(event)
}

func (h *SessionHandler) relayOnly(event dto.OutboundEvent) {
	if h.relay == nil || h.session == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.relay.RelayToSession(h.session.Id, data, h.client)
}

func (h *SessionHandler) emitError(code, message string) {
	h.sink.Emit(dto.NewErrorEvent(code, message))
}

// emitTypedError maps the domain error taxonomy onto wire events.
func (h *SessionHandler) emitTypedError(err error) {
	var validationErr *assistant.ValidationError
	var rateLimitErr *assistant.RateLimitError
	var sessionErr *service.SessionError

	switch {
	case errors.As(err, &validationErr):
		h.emitError(CodeValidation, validationErr.Reason)
	case errors.As(err, &rateLimitErr):
		retryAfter := int(rateLimitErr.RetryAfter.Seconds())
		h.sink.Emit(dto.NewRateLimitErrorEvent(
			fmt.Sprintf("Muitas mensagens em pouco tempo. Tente novamente em %d segundos.", retryAfter),
			retryAfter,
		))
	case errors.As(err, &sessionErr):
		h.emitError(CodeSession, "Não foi possível recuperar a sessão. Inicie uma nova conversa.")
	default:
		h.emitError(CodeGeneration, "Algo deu errado ao processar sua solicitação. Tente novamente.")
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// ServeWs runs the protocol for one upgraded connection. It blocks until the
// connection drops or the protocol reaches CLOSED.
func ServeWs(ctx context.Context, hub *Hub, deps HandlerDeps, conn *fiberws.Conn, owner entity.Owner) {
	client := &Client{
		Hub:          hub,
		Conn:         conn,
		ConnectionId: uuid.NewString(),
		Send:         make(chan []byte, 256),
	}
	handler := NewSessionHandler(ctx, deps, owner, client, hub, client)

	go client.writePump()
	handler.OnConnect(client.ConnectionId)
	client.readPump(handler) // run in the upgrade handler's goroutine
}
