/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"crypto/rand"
	"net/http"
	"net/url"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const (
	roomIDLength = 8
	qrSize       = 320
)

// newRoomName generates a crypto-random room name that is not currently
// held by the hub.
func newRoomName(h *Hub) string {
	const letters = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
	for {
		buf := make([]byte, roomIDLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, roomIDLength)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		name := string(out)

		if !h.RoomExists(name) {
			return name
		}
	}
}

func roomPath(cfg *Config, name string) string {
	return cfg.prefix + "/room/" + url.PathEscape(name)
}

// redirectNewRoom handles GET /new by sending the browser to a fresh room.
func redirectNewRoom(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		name := newRoomName(h)
		logf(cfg, "GAMES: Allocated room %s for %s", name, realIP(r))
		http.Redirect(w, r, roomPath(cfg, name), http.StatusTemporaryRedirect)
	}
}

// serveQR renders a PNG QR code pointing at the room page.
func serveQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		name := ps.ByName("room")
		if strings.TrimSpace(name) == "" {
			http.Error(w, "missing room name", http.StatusBadRequest)
			return
		}

		scheme := cfg.scheme()
		if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
			scheme = proto
		}

		png, err := qrcode.Encode(scheme+"://"+r.Host+roomPath(cfg, name), qrcode.Medium, qrSize)
		if err != nil {
			errs <- err
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		if _, err := w.Write(png); err != nil {
			errs <- err
		}
	}
}

// registerGame sets up routes so that:
//   - /new             → redirects to a new random room
//   - /room/:room      → HTML client for that room
//   - /room/:room/qr   → PNG QR code for the room URL
//   - /ws              → the game websocket (rooms are chosen by joinRoom)
func registerGame(cfg *Config, h *Hub, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/new", redirectNewRoom(cfg, h))

	mux.GET(cfg.prefix+"/room/:room", serveClient(cfg, errs))

	mux.GET(cfg.prefix+"/room/:room/qr", serveQR(cfg, errs))

	mux.GET(cfg.prefix+"/ws", serveWS(cfg, h))
}
