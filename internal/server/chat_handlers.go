package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"FitAI_V1.0/internal/geminiservice"
	"FitAI_V1.0/internal/observability"
	"FitAI_V1.0/internal/utility"
)

const (
	chatApology     = "Oops! Something went wrong. Please try again later."
	chatIdleTimeout = 10 * time.Minute
	chatWriteWait   = 10 * time.Second
	// maxChatTurns bounds the history sent with each websocket message.
	maxChatTurns = 20
)

type chatRequest struct {
	Message string               `json:"message"`
	History []geminiservice.Turn `json:"history"`
}

type chatFrame struct {
	Message string `json:"message"`
}

type chatReplyFrame struct {
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

/* ====================================================================
                   		Chat Assistant Handlers
==================================================================== */

// chatHandler answers one message; the client sends the history it holds.
func (s *Server) chatHandler(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fail("Invalid request body."))
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return c.JSON(http.StatusBadRequest, fail("Message is required."))
	}

	reply, err := s.ask(c.Request().Context(), req.History, message)
	if err != nil {
		return c.JSON(http.StatusBadGateway, fail(chatApology))
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "reply": reply})
}

// chatSocketHandler keeps the conversation history per connection. Each
// {"message"} frame is answered with a {"reply"} frame.
func (s *Server) chatSocketHandler(c echo.Context) error {
	conn, err := utility.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		return nil
	}

	ctx := c.Request().Context()
	sessionID := uuid.New().String()
	logger := zerolog.Ctx(ctx).With().Str("session_id", sessionID).Logger()

	utility.RegisterClient(sessionID, conn)
	defer utility.UnregisterClient(sessionID)

	var history []geminiservice.Turn
	for {
		_ = conn.SetReadDeadline(time.Now().Add(chatIdleTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("Chat socket closed unexpectedly")
			}
			return nil
		}

		var in chatFrame
		if err := json.Unmarshal(data, &in); err != nil || strings.TrimSpace(in.Message) == "" {
			if !writeFrame(conn, chatReplyFrame{Error: "Send a JSON object with a non-empty message."}) {
				return nil
			}
			continue
		}
		message := strings.TrimSpace(in.Message)

		out := chatReplyFrame{}
		reply, err := s.ask(logger.WithContext(ctx), history, message)
		if err != nil {
			out.Reply = chatApology
		} else {
			out.Reply = reply
			history = append(history,
				geminiservice.Turn{Role: "user", Text: message},
				geminiservice.Turn{Role: "model", Text: reply},
			)
			if len(history) > maxChatTurns {
				history = history[len(history)-maxChatTurns:]
			}
		}

		if !writeFrame(conn, out) {
			return nil
		}
	}
}

func (s *Server) ask(ctx context.Context, history []geminiservice.Turn, message string) (string, error) {
	reply, err := s.chat.Chat(ctx, history, message)
	if err != nil {
		observability.RecordGeneration(observability.KindChat, observability.OutcomeGenerationError)
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Chat generation failed")
		return "", err
	}
	observability.RecordGeneration(observability.KindChat, observability.OutcomeOK)
	return reply, nil
}

func writeFrame(conn *websocket.Conn, frame chatReplyFrame) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
	return conn.WriteJSON(frame) == nil
}
