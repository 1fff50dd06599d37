package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/openboard/darts-server/internal/rtc"
)

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Status string `json:"status"`
	}{Status: "ok"})
}

// IssueRTCToken is the REST twin of the in-band REQUEST_RTC_TOKEN message,
// for clients that fetch their voice token before opening the socket.
func IssueRTCToken(issuer *rtc.Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ChannelName string `json:"channelName"`
			UID         string `json:"uid"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}
		tok, err := issuer.IssueToken(req.ChannelName, req.UID)
		if err == rtc.ErrNotConfigured {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tok)
	}
}
