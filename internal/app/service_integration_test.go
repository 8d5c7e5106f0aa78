package service_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/niicolenco/tikbattle/internal/adapters/broadcast"
)

// overlayClient collects broadcast messages by type for assertions.
type overlayClient struct {
	conn     *websocket.Conn
	messages chan broadcast.Message
}

func connectOverlay(t *testing.T, h *harness) *overlayClient {
	t.Helper()
	srv := httptest.NewServer(h.Hub())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial hub: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	oc := &overlayClient{conn: conn, messages: make(chan broadcast.Message, 256)}
	go func() {
		defer close(oc.messages)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg broadcast.Message
			if json.Unmarshal(data, &msg) == nil {
				oc.messages <- msg
			}
		}
	}()
	return oc
}

// await returns the first message of the given type, skipping others.
func (oc *overlayClient) await(t *testing.T, msgType string) broadcast.Message {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case msg, ok := <-oc.messages:
			if !ok {
				t.Fatalf("connection closed waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", msgType)
		}
	}
}

func asObject(t *testing.T, data any) map[string]any {
	t.Helper()
	obj, ok := data.(map[string]any)
	if !ok {
		t.Fatalf("expected object payload, got %T", data)
	}
	return obj
}

func TestOverlayInitialState(t *testing.T) {
	Convey("A connecting overlay receives the full snapshot", t, func() {
		svc := startService(t, testConfig(t))
		oc := connectOverlay(t, svc)

		cfgMsg := oc.await(t, "config")
		cfg := asObject(t, cfgMsg.Data)
		So(cfg["addr"], ShouldEqual, ":8080")

		oc.await(t, "scores")
		oc.await(t, "stream_scores")

		timerMsg := oc.await(t, "TIMER_UPDATE")
		timer := asObject(t, timerMsg.Data)
		So(timer["running"], ShouldEqual, false)
	})
}

func TestBattleLifecycleBroadcasts(t *testing.T) {
	Convey("Given a service with a connected overlay", t, func() {
		ctx := context.Background()
		svc := startService(t, testConfig(t))
		oc := connectOverlay(t, svc)
		oc.await(t, "TIMER_UPDATE") // initial snapshot fully received

		Convey("a full round broadcasts start, scores, and the winner", func() {
			svc.StartBattle(300)
			oc.await(t, "BATTLE_START")

			timerMsg := oc.await(t, "TIMER_UPDATE")
			timer := asObject(t, timerMsg.Data)
			So(timer["running"], ShouldEqual, true)
			So(timer["seconds"], ShouldBeGreaterThan, 299.0)

			svc.InjectGift(ctx, "Rose", 50)
			svc.InjectGift(ctx, "Lion", 20)
			So(waitFor(t, func() bool { return battleScore(svc, "rojo") == 50 }), ShouldBeTrue)

			svc.StopBattle()
			endMsg := oc.await(t, "BATTLE_END")
			end := asObject(t, endMsg.Data)
			winner := asObject(t, end["winner"])
			So(winner["name"], ShouldEqual, "ROJO")
			So(winner["color"], ShouldEqual, "#FF0000")
		})

		Convey("a scoreless round ends with a null winner", func() {
			svc.StartBattle(300)
			oc.await(t, "BATTLE_START")

			svc.StopBattle()
			endMsg := oc.await(t, "BATTLE_END")
			end := asObject(t, endMsg.Data)
			So(end["winner"], ShouldBeNil)
		})

		Convey("taps drive TAPS_UPDATE with goal progress", func() {
			svc.InjectTaps(ctx, 150)

			tapsMsg := oc.await(t, "TAPS_UPDATE")
			progress := asObject(t, tapsMsg.Data)
			So(progress["current"], ShouldEqual, 150.0)
			So(progress["currentGoalName"], ShouldEqual, "Reto")
			So(progress["goalJustMet"], ShouldEqual, true)
			So(progress["fillColor"], ShouldEqual, "#FF00FF")
		})

		Convey("gifts drive TOTAL_POINTS_UPDATE and STATS_UPDATE", func() {
			svc.InjectGift(ctx, "Rose", 60)

			pointsMsg := oc.await(t, "TOTAL_POINTS_UPDATE")
			progress := asObject(t, pointsMsg.Data)
			So(progress["current"], ShouldEqual, 60.0)
			So(progress["currentGoalName"], ShouldEqual, "¡Completado!")

			statsMsg := oc.await(t, "STATS_UPDATE")
			stats := asObject(t, statsMsg.Data)
			So(stats["diamonds"], ShouldEqual, 60.0)
		})

		Convey("a new session zeroes the scoreboard for overlays", func() {
			So(svc.InjectTeamGift("rojo", 35), ShouldBeNil)
			So(waitFor(t, func() bool { return battleScore(svc, "rojo") == 35 }), ShouldBeTrue)

			svc.NewSession()
			oc.await(t, "BATTLE_START") // stale winner banner cleared
			So(waitFor(t, func() bool {
				return battleScore(svc, "rojo") == 0 && streamScore(svc, "rojo") == 0
			}), ShouldBeTrue)
		})

		Convey("the heartbeat reports relay status", func() {
			statusMsg := oc.await(t, "APP_STATUS")
			status := asObject(t, statusMsg.Data)
			So(status["status"], ShouldBeIn, "disconnected", "connecting", "waiting", "active")
		})
	})
}

func TestPauseBroadcasts(t *testing.T) {
	Convey("Pausing mid-round freezes the countdown for overlays", t, func() {
		svc := startService(t, testConfig(t))
		oc := connectOverlay(t, svc)
		oc.await(t, "TIMER_UPDATE")

		svc.StartBattle(120)
		oc.await(t, "BATTLE_START")

		svc.TogglePause()
		So(waitFor(t, func() bool {
			snap := timerSnapshot(svc)
			return snap.Paused && !snap.Running
		}), ShouldBeTrue)

		svc.TogglePause()
		So(waitFor(t, func() bool { return timerSnapshot(svc).Running }), ShouldBeTrue)

		svc.StopBattle()
		So(waitFor(t, func() bool { return !timerSnapshot(svc).Running }), ShouldBeTrue)
	})
}
