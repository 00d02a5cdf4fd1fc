package email

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub_backend/pkg/config"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

func TestServiceRendersInquiryTemplates(t *testing.T) {
	rec := &recordingSender{}
	svc, err := NewService(rec, "EstateHub <noreply@estatehub.test>")
	require.NoError(t, err)

	data := InquiryData{
		SubmitterName: "Ann Buyer",
		AgentName:     "Bob Agent",
		ListingTitle:  "Garden Flat",
		Subject:       "Viewing",
		Message:       "Can I see it Friday?",
		ContactEmail:  "ann@example.com",
		ContactPhone:  "+254700000000",
		Response:      "Friday 10am works.",
	}
	ctx := context.Background()
	require.NoError(t, svc.SendInquiryConfirmation(ctx, "ann@example.com", data))
	require.NoError(t, svc.SendInquiryAlert(ctx, "bob@example.com", data))
	require.NoError(t, svc.SendInquiryResponse(ctx, "ann@example.com", data))

	require.Len(t, rec.sent, 3)
	assert.Equal(t, "Inquiry sent: Garden Flat", rec.sent[0].Subject)
	assert.Contains(t, rec.sent[0].Text, "Can I see it Friday?")
	assert.Contains(t, rec.sent[1].Text, "+254700000000")
	assert.Equal(t, "bob@example.com", rec.sent[1].To)
	assert.Equal(t, "Re: Viewing", rec.sent[2].Subject)
	assert.Contains(t, rec.sent[2].Text, "Friday 10am works.")
	assert.Equal(t, "EstateHub <noreply@estatehub.test>", rec.sent[2].From)
}

func TestServiceReturnsSenderError(t *testing.T) {
	svc, err := NewService(&recordingSender{err: errors.New("smtp down")}, "x@example.com")
	require.NoError(t, err)
	assert.Error(t, svc.SendInquiryAlert(context.Background(), "a@example.com", InquiryData{}))
}

func TestResendSender(t *testing.T) {
	var got resendPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := &ResendSender{apiKey: "key", endpoint: srv.URL, client: srv.Client()}
	require.NoError(t, s.Send(context.Background(), Message{From: "f@x", To: "t@x", Subject: "s", Text: "body"}))
	assert.Equal(t, "t@x", got.To)
	assert.Equal(t, "body", got.Text)
}

func TestResendSenderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := &ResendSender{apiKey: "key", endpoint: srv.URL, client: srv.Client()}
	err := s.Send(context.Background(), Message{To: "t@x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestNewSender(t *testing.T) {
	s, err := NewSender(config.EmailConfig{Provider: "log"})
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	_, err = NewSender(config.EmailConfig{Provider: "resend"})
	assert.Error(t, err)

	s, err = NewSender(config.EmailConfig{Provider: "smtp", SMTPHost: "mail.local", SMTPPort: "25"})
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	_, err = NewSender(config.EmailConfig{Provider: "pigeon"})
	assert.Error(t, err)
}

func TestBuildEmailHeaders(t *testing.T) {
	raw := string(buildEmail(Message{From: "a@x", To: "b@x", Subject: "Hi", Text: "hello"}))
	assert.True(t, strings.HasPrefix(raw, "From: a@x\r\nTo: b@x\r\nSubject: Hi\r\n"))
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nhello"))
}

func TestBuildEmailStripsHeaderBreaks(t *testing.T) {
	raw := string(buildEmail(Message{
		From:    "a@x",
		To:      "b@x",
		Subject: "Flat\r\nBcc: victim@x",
		Text:    "line one\r\nline two",
	}))
	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok)
	assert.NotContains(t, head, "\r\nBcc:")
	assert.Contains(t, head, "Subject: Flat  Bcc: victim@x\r\n")
	assert.Equal(t, "line one\r\nline two", body)
}

func TestSMTPSenderHonoursContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		// accept and never greet
		conn, err := ln.Accept()
		if err == nil {
			defer conn.Close()
			time.Sleep(2 * time.Second)
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	s := &SMTPSender{host: host, port: port}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	err = s.Send(ctx, Message{From: "a@x", To: "b@x", Subject: "Hi", Text: "hello"})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	d := NewDispatcher(time.Second)
	var calls atomic.Int32

	d.Go("ok", func(ctx context.Context) error { calls.Add(1); return nil })
	d.Go("fail", func(ctx context.Context) error { calls.Add(1); return errors.New("boom") })
	d.Go("panic", func(ctx context.Context) error { calls.Add(1); panic("oops") })
	d.Wait()

	assert.Equal(t, int32(3), calls.Load())
}

func TestDispatcherAppliesTimeout(t *testing.T) {
	d := NewDispatcher(20 * time.Millisecond)
	var ctxErr error
	d.Go("slow", func(ctx context.Context) error {
		<-ctx.Done()
		ctxErr = ctx.Err()
		return ctxErr
	})
	d.Wait()
	assert.ErrorIs(t, ctxErr, context.DeadlineExceeded)
}
