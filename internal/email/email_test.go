package email

import (
	"context"
	"strings"
	"testing"
)

func TestRenderMarkdownTable(t *testing.T) {
	html, err := RenderMarkdown("# Schedule\n\n| Date | Team |\n|---|---|\n| 2024-01-15 | Ice Hawks |\n\n<script>x</script>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(html, "<h1>Schedule</h1>") {
		t.Fatalf("expected heading, got %q", html)
	}
	if !strings.Contains(html, "<td>Ice Hawks</td>") {
		t.Fatalf("expected table cell, got %q", html)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("expected raw html to be dropped, got %q", html)
	}
}

func TestNoopSenderRecords(t *testing.T) {
	s := NewNoopSender(nil)
	res, err := s.SendBatch(context.Background(), []SendRequest{
		{To: []string{"a@example.com"}, Subject: "one"},
		{To: []string{"b@example.com"}, Subject: "two"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res) != 2 || res[1].MessageID != "noop-2" {
		t.Fatalf("unexpected results %+v", res)
	}
	if sent := s.Sent(); len(sent) != 2 || sent[0].Subject != "one" {
		t.Fatalf("unexpected sent %+v", sent)
	}
}
