package gateway

import (
	"context"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mirreg/registry/internal/domain"
)

func TestRenderSubjects(t *testing.T) {
	cases := []struct {
		event   domain.Event
		subject string
	}{
		{
			domain.Event{Type: domain.EventSubmissionAccepted, Name: "ChEBI"},
			"[Registry] data collection pending: 'ChEBI'",
		},
		{
			domain.Event{Type: domain.EventRecordPublished, Name: "ChEBI"},
			"[Registry] data collection published: 'ChEBI'",
		},
		{
			domain.Event{Type: domain.EventPublishFailed, Name: "ChEBI"},
			"[Registry] publication FAILED: 'ChEBI'",
		},
		{
			domain.Event{Type: domain.EventEditSuggested, CollectionID: "MIR:00000008"},
			"[Registry] edit suggestion: 'MIR:00000008'",
		},
		{
			domain.Event{Type: domain.EventOwnershipRequested, Name: "ChEBI"},
			"[Registry] resource ownership requested: 'ChEBI'",
		},
	}

	for _, tc := range cases {
		subject, _ := Render(tc.event)
		if subject != tc.subject {
			t.Fatalf("expected %q, got %q", tc.subject, subject)
		}
	}
}

func TestRenderBody(t *testing.T) {
	_, body := Render(domain.Event{
		Type:         domain.EventSubmissionAccepted,
		CollectionID: "MIR:00900042",
		Name:         "ChEBI",
		Actor:        "alice",
		Subject:      "please review",
		Body:         "Name: ChEBI",
	})
	for _, want := range []string{"Identifier: MIR:00900042", "User: alice", "Comment: please review", "Name: ChEBI"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestMailerSendsAndNeverPropagates(t *testing.T) {
	var mu sync.Mutex
	var gotMsg []byte
	done := make(chan struct{})

	m := NewMailer(MailerConfig{
		Addr: "smtp.example.org:25",
		From: "registry@example.org",
		To:   []string{"curators@example.org"},
	})
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		mu.Lock()
		gotMsg = msg
		mu.Unlock()
		close(done)
		return nil
	}

	m.Publish(context.Background(), domain.Event{
		Type: domain.EventRecordPublished,
		Name: "ChEBI",
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("mail never sent")
	}

	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(string(gotMsg), "Subject: [Registry] data collection published: 'ChEBI'") {
		t.Fatalf("unexpected message:\n%s", gotMsg)
	}
}

func TestMailerDisabledWithoutConfig(t *testing.T) {
	m := NewMailer(MailerConfig{})
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		t.Fatalf("send must not be called without configuration")
		return nil
	}
	m.Publish(context.Background(), domain.Event{Type: domain.EventRecordPublished})
}
