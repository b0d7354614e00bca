package serve

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// connState is the lifecycle of a livereload connection. Each
// connection moves through the states exactly once, in order; the
// contract is one notification per connection, then teardown.
type connState int

const (
	stateStart connState = iota
	stateSubscribed
	stateWaiting
	stateNotify
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateSubscribed:
		return "subscribed"
	case stateWaiting:
		return "waiting"
	case stateNotify:
		return "notify"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// liveReload upgrades connections on the reserved endpoint and sends
// each one a single reload notification.
type liveReload struct {
	bus      *Bus
	metrics  *Metrics
	log      *logrus.Entry
	upgrader websocket.Upgrader
}

func newLiveReload(bus *Bus, metrics *Metrics, log *logrus.Entry) *liveReload {
	return &liveReload{
		bus:     bus,
		metrics: metrics,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // local preview only
			},
		},
	}
}

// ServeHTTP runs the one-shot connection state machine:
// start -> subscribed -> waiting -> notify -> closed.
//
// The client reloads its page on notification, which discards this
// connection; the fresh page opens a new one with a new subscriber, so
// no liveness tracking is needed here.
func (lr *liveReload) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := stateStart

	conn, err := lr.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}
	defer conn.Close()

	lr.metrics.ConnectionOpened()
	defer lr.metrics.ConnectionClosed()

	sub := lr.bus.Subscribe()
	defer sub.Close()
	state = stateSubscribed
	lr.log.WithField("state", state).Trace("livereload connection")

	// Cancel the wait when the client goes away; the read pump also
	// drains control frames.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	state = stateWaiting
	err = sub.Receive(ctx)
	if err != nil && err != ErrOverrun {
		// Client disconnected or the server is shutting down.
		state = stateClosed
		lr.log.WithField("state", state).Trace("livereload connection")
		return
	}

	// Overrun counts as a notification: any signal means reload.
	state = stateNotify
	lr.log.WithField("state", state).Trace("livereload connection")
	if err := conn.WriteMessage(websocket.TextMessage, []byte(reloadNotification)); err != nil {
		lr.log.WithError(err).Debug("livereload notify failed")
	}

	state = stateClosed
	lr.log.WithField("state", state).Trace("livereload connection")
}
