package handlers

import (
	"bufio"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/websocket"
)

// Subscriber is the hub side of a live match stream.
type Subscriber interface {
	Register(client *websocket.Client)
	Unregister(client *websocket.Client)
}

const keepAlive = 25 * time.Second

// StreamMatch returns a handler for GET /api/v1/matches/:id/events. It streams
// the match's events as server-sent events until the client goes away or the
// hub closes the subscription.
func StreamMatch(hub Subscriber) fiber.Handler {
	return func(c *fiber.Ctx) error {
		client := websocket.NewClient(currentMatch(c).ID)
		hub.Register(client)

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer hub.Unregister(client)
			ticker := time.NewTicker(keepAlive)
			defer ticker.Stop()

			// A failed flush means the browser disconnected.
			for {
				select {
				case data, ok := <-client.Send:
					if !ok {
						return
					}
					fmt.Fprintf(w, "data: %s\n\n", data)
				case <-ticker.C:
					fmt.Fprint(w, ": ping\n\n")
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}))
		return nil
	}
}
