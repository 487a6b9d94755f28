package http

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocketAssessmentFlow(t *testing.T) {
	service, _ := newTestService(t, "")
	router := NewRouter(NewAPIHandler(service, "IZY", nil), NewWSHandler(service, "contact@izyshow.com", nil))
	server := httptest.NewServer(router)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readNext(conn, t, "session")

	send(conn, t, "start", map[string]any{"email": "no-at-sign"})
	_, payload := readNext(conn, t, "error")
	if !strings.Contains(payload["message"].(string), "email") {
		t.Fatalf("expected email error, got %v", payload)
	}

	send(conn, t, "start", map[string]any{"email": "jane@corp.fr"})
	_, payload = readNext(conn, t, "question")
	if payload["index"].(float64) != 0 || payload["remaining"].(float64) != 45 {
		t.Fatalf("unexpected first question %v", payload)
	}
	question := payload["question"].(map[string]any)
	if _, leaked := question["correctAnswer"]; leaked {
		t.Fatalf("answer key sent to candidate: %v", question)
	}

	send(conn, t, "answer", map[string]any{"choice": 1})
	_, payload = readNext(conn, t, "question")
	if payload["index"].(float64) != 1 {
		t.Fatalf("expected second question, got %v", payload)
	}

	send(conn, t, "answer", map[string]any{"choice": 0})
	_, payload = readNext(conn, t, "finished")
	result := payload["result"].(map[string]any)
	if result["score"].(float64) != 1 || payload["pending"] != true {
		t.Fatalf("unexpected finished payload %v", payload)
	}

	var feedback map[string]any
	for i := 0; i < 5 && feedback == nil; i++ {
		typ, p := readNext(conn, t, "")
		if typ == "feedback" {
			feedback = p
		}
	}
	if feedback == nil {
		t.Fatalf("expected feedback event")
	}
	if feedback["result"].(map[string]any)["feedback"] != "Bon travail." {
		t.Fatalf("unexpected feedback %v", feedback)
	}
	if !strings.HasPrefix(feedback["mailto"].(string), "mailto:contact@izyshow.com?") {
		t.Fatalf("expected mailto draft, got %v", feedback["mailto"])
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(service.Results().List()) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("result was not stored")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketDisconnectReleasesSession(t *testing.T) {
	service, _ := newTestService(t, "")
	server := httptest.NewServer(NewRouter(NewAPIHandler(service, "IZY", nil), NewWSHandler(service, "", nil)))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	readNext(conn, t, "session")
	if service.ActiveSessions() != 1 {
		t.Fatalf("expected one live session, got %d", service.ActiveSessions())
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for service.ActiveSessions() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("session not released after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func send(conn *websocket.Conn, t *testing.T, typ string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": json.RawMessage(raw)}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
