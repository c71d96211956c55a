package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"MarinePulse/internal/domain/models"
	drepo "MarinePulse/internal/domain/repository"
	applogger "MarinePulse/pkg/logger"

	"github.com/gorilla/websocket"
)

// AISStream keeps a WebSocket subscription to the aisstream.io feed and
// buffers position reports between polls, so the scheduler can treat it
// like every other provider: each Fetch drains whatever arrived since the
// previous cycle.
type AISStream struct {
	streamURL string
	logger    *applogger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	buf       chan json.RawMessage
}

func NewAISStream(streamURL string, bufferSize int, lgr *applogger.Logger) *AISStream {
	if bufferSize <= 0 {
		bufferSize = 4096
	}
	return &AISStream{
		streamURL: streamURL,
		logger:    lgr,
		buf:       make(chan json.RawMessage, bufferSize),
	}
}

func (p *AISStream) Name() string          { return "aisstream" }
func (p *AISStream) Kind() models.DataKind { return models.KindVesselPositions }

func (p *AISStream) Fetch(ctx context.Context, cred *models.ProviderCredential) ([]models.RawRecord, error) {
	if err := p.ensureConnected(ctx, cred.Key); err != nil {
		return nil, fmt.Errorf("aisstream: %w", err)
	}

	fetchedAt := now()
	var records []models.RawRecord
	for {
		select {
		case msg := <-p.buf:
			records = append(records, models.RawRecord{
				Provider:  p.Name(),
				Kind:      p.Kind(),
				FetchedAt: fetchedAt,
				Payload:   msg,
			})
		default:
			return records, nil
		}
	}
}

func (p *AISStream) ensureConnected(ctx context.Context, apiKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connected {
		return nil
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, p.streamURL, nil)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("%w: handshake status %d", drepo.ErrAuthRejected, resp.StatusCode)
		}
		if ctx.Err() != nil || isTimeout(err) {
			return fmt.Errorf("%w: %v", drepo.ErrTimeout, err)
		}
		return fmt.Errorf("connect: %w", err)
	}

	sub := map[string]interface{}{
		"APIKey":             apiKey,
		"BoundingBoxes":      [][][]float64{{{-90, -180}, {90, 180}}},
		"FilterMessageTypes": []string{"PositionReport"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		_ = conn.Close()
		return fmt.Errorf("subscribe: %w", err)
	}

	p.conn = conn
	p.connected = true
	p.logger.Info("aisstream: connected")

	go p.readLoop(conn)
	return nil
}

// readLoop buffers incoming messages until the connection drops. A full
// buffer drops the oldest report; the next cycle only needs recent data.
func (p *AISStream) readLoop(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			p.mu.Lock()
			if p.conn == conn {
				p.connected = false
				p.conn = nil
			}
			p.mu.Unlock()
			p.logger.Warn("aisstream: read loop ended", applogger.Error(err))
			return
		}
		select {
		case p.buf <- json.RawMessage(msg):
		default:
			select {
			case <-p.buf:
			default:
			}
			p.buf <- json.RawMessage(msg)
		}
	}
}

func (p *AISStream) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = false
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

var _ drepo.ProviderClient = (*AISStream)(nil)
