// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package progress

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/boxkit/dstore/pkg/objrepo"
)

func TestBroadcasterPublishesToClient(t *testing.T) {
	b := NewBroadcaster()
	addr, shutdown, err := b.ListenAndServe("127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenAndServe: %v", err)
	}
	defer shutdown()

	url := "ws://" + addr + "/progress"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	// Give the server a moment to register the client before publishing.
	time.Sleep(50 * time.Millisecond)

	b.Publish(objrepo.ProgressEvent{Phase: "file", Checksum: strings.Repeat("a", 64), Bytes: 42})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var ev objrepo.ProgressEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if ev.Phase != "file" || ev.Bytes != 42 {
		t.Errorf("got %+v", ev)
	}
}
