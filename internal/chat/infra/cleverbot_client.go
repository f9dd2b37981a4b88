package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/boddenberg/cleverbot-go/internal/chat/domain"
	maindomain "github.com/boddenberg/cleverbot-go/internal/domain"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// tracer é o tracer OpenTelemetry para o módulo chat/infra.
var tracer = otel.Tracer("chat/infra")

// DefaultEndpoint is the only resource the client talks to.
const DefaultEndpoint = "http://www.cleverbot.com/webservicemin"

// maxResponseSize limits response body reads. Larger replies are refused.
const maxResponseSize = 1 << 20

var deniedMarker = []byte("DENIED")

// ============================================================
// Client: cliente HTTP do formulário webservicemin
// ============================================================
//
// Cada Client guarda a sua própria sessão. Um turno é:
//
//	stimulus = pergunta → icognocheck recalculado → POST → classificação → parse
//
// Não há retry aqui: uma rejeição volta direto para o chamador.

// Client is one conversational party. It is not safe for concurrent use.
type Client struct {
	httpClient *http.Client
	endpoint   string
	headers    http.Header
	cb         *gobreaker.CircuitBreaker
	session    *domain.Session
	logger     *zap.Logger
}

// NewClient creates a client. A nil initial state starts from the default
// template; a non-nil one is copied, so callers may keep using theirs.
func NewClient(httpClient *http.Client, endpoint string, cb *gobreaker.CircuitBreaker, initial *domain.Session, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	session := domain.DefaultSession()
	if initial != nil {
		session = initial.Clone()
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		headers:    browserHeaders(endpoint),
		cb:         cb,
		session:    session,
		logger:     logger,
	}
}

// browserHeaders returns the header set the form endpoint accepts. Host and
// Referer follow the endpoint; with DefaultEndpoint they match the site.
func browserHeaders(endpoint string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", "Mozilla/4.0 (compatible; MSIE 8.0; Windows NT 6.0)")
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Charset", "ISO-8859-1,utf-8;q=0.7,*;q=0.7")
	h.Set("Accept-Language", "en-us,en;q=0.8,en-us;q=0.5,en;q=0.3")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		h.Set("Host", u.Host)
		h.Set("Referer", fmt.Sprintf("%s://%s/", u.Scheme, u.Host))
	}
	return h
}

// Ask sends question and returns the reply text.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	ctx, span := tracer.Start(ctx, "Client.Ask")
	defer span.End()

	c.logger.Debug("cleverbot query", zap.String("question", question))

	c.session.Set(domain.FieldStimulus, question)

	body, err := c.send(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	written := domain.ApplyResponse(c.session, body)
	span.SetAttributes(attribute.Int("cleverbot.fields", written))

	reply, _ := c.session.Get(domain.FieldReplyText)
	return strings.ToValidUTF8(reply, "\uFFFD"), nil
}

// Session returns a copy of the current state.
func (c *Client) Session() *domain.Session {
	return c.session.Clone()
}

// send posts the current state and returns the raw body of an accepted reply.
func (c *Client) send(ctx context.Context) ([]byte, error) {
	domain.RefreshToken(c.session)
	form := c.session.Encode()

	result, err := c.cb.Execute(func() (any, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form))
		if err != nil {
			return nil, fmt.Errorf("create http request: %w", err)
		}
		for k, v := range c.headers {
			httpReq.Header[k] = v
		}
		// net/http ignores a Host entry in Header.
		httpReq.Host = c.headers.Get("Host")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, &maindomain.ErrExternalService{Service: "cleverbot", Err: err}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
		if err != nil {
			return nil, &maindomain.ErrExternalService{Service: "cleverbot", Err: fmt.Errorf("read body: %w", err)}
		}
		if len(body) > maxResponseSize {
			return nil, &maindomain.ErrExternalService{Service: "cleverbot", Err: fmt.Errorf("response exceeds %d bytes", maxResponseSize)}
		}

		c.logger.Debug("cleverbot response",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("content", body),
		)

		if bytes.Contains(body, deniedMarker) {
			return nil, &maindomain.ErrRejection{StatusCode: resp.StatusCode, Denied: true}
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &maindomain.ErrRejection{StatusCode: resp.StatusCode}
		}
		return body, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &maindomain.ErrCircuitOpen{Service: "cleverbot"}
	}
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
