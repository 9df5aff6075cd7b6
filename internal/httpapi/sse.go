package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"screend/pkg/types"
)

// sseWriteTimeout is the maximum time allowed for a single SSE write.
// Prevents goroutine leaks when clients are slow or disconnected.
const sseWriteTimeout = 5 * time.Second

// handleEvents streams publish events to a display client. On connect the
// client immediately receives the current live reference (if any), then one
// event per publish plus periodic heartbeat comments.
func handleEvents(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := tenantParam(r)
		if _, ok := w.(http.Flusher); !ok {
			writeJSONError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		sub, err := svc.Subscribe(tenant)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		defer svc.Unsubscribe(sub)

		// ResponseController gives deadline-aware write and flush so a dead
		// TV can never wedge the handler.
		rc := http.NewResponseController(w)
		deadlinesSupported := true
		writeAndFlush := func(b []byte) error {
			if deadlinesSupported {
				if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
					zlog.Warn().Err(err).Msg("sse write deadlines not supported")
					deadlinesSupported = false
				}
			}
			if _, err := w.Write(b); err != nil {
				return err
			}
			return rc.Flush()
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		sseSubscribers.WithLabelValues(tenant).Inc()
		defer sseSubscribers.WithLabelValues(tenant).Dec()
		zlog.Debug().Str("tenant", tenant).Str("subscriber", sub.ID).Msg("display connected")
		defer zlog.Debug().Str("tenant", tenant).Str("subscriber", sub.ID).Msg("display disconnected")

		// seed: a newly connected display with existing content is never
		// left blank waiting for the next publish
		if ref, err := svc.LiveReference(tenant); err == nil {
			ev := types.ScreenEvent{Tenant: tenant, URL: ref.URL, Version: ref.Version}
			if err := writeEvent(writeAndFlush, ev); err != nil {
				return
			}
		}

		// stream until client disconnect or server shutdown
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()
		for {
			select {
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if err := writeEvent(writeAndFlush, ev); err != nil {
					return
				}
			case <-heartbeat.C:
				if err := writeAndFlush([]byte(":hb\n\n")); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}

func writeEvent(writeAndFlush func([]byte) error, ev types.ScreenEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return writeAndFlush([]byte(fmt.Sprintf("data: %s\n\n", data)))
}
