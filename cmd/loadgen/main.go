package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

var (
	targetHost = flag.String("target", "http://localhost:8080", "bot base URL")
	codeHost   = flag.String("code-host", "gitlab.com", "code host used in generated links")
	rps        = flag.Int("rps", 5, "requests per second")
	duration   = flag.Duration("duration", time.Minute, "attack duration")
	seedCount  = flag.Int("seed", 50, "tracked reviews created before the attack")
)

var (
	secret    = os.Getenv("SLACK_SIGNING_SECRET")
	reviewers = []string{"ULOADA", "ULOADB", "ULOADC", "ULOADD", "ULOADE"}
	reactions = []string{"+1", "white_check_mark", "memo", "wrench", "eyes"}
	threads   []string
	httpc     = &http.Client{Timeout: 10 * time.Second}
)

type innerEvent struct {
	Type     string         `json:"type"`
	User     string         `json:"user"`
	Text     string         `json:"text,omitempty"`
	TS       string         `json:"ts,omitempty"`
	Channel  string         `json:"channel,omitempty"`
	Reaction string         `json:"reaction,omitempty"`
	Item     map[string]any `json:"item,omitempty"`
	EventTS  string         `json:"event_ts"`
}

type callback struct {
	Type     string     `json:"type"`
	TeamID   string     `json:"team_id"`
	APIAppID string     `json:"api_app_id"`
	EventID  string     `json:"event_id"`
	Event    innerEvent `json:"event"`
}

func newTS() string {
	now := time.Now()
	return fmt.Sprintf("%d.%06d", now.Unix(), now.Nanosecond()/1000)
}

func mentionEvent(ts string) callback {
	a, b := reviewers[rand.Intn(len(reviewers))], reviewers[rand.Intn(len(reviewers))]
	text := fmt.Sprintf("<@UBOT> please review https://%s/load/group/service/-/merge_requests/%d <@%s> <@%s>",
		*codeHost, rand.Intn(1_000_000)+1, a, b)
	return callback{
		Type:    "event_callback",
		EventID: "Ev" + ts,
		Event: innerEvent{
			Type:    "app_mention",
			User:    "ULOADAUTHOR",
			Text:    text,
			TS:      ts,
			Channel: "CLOAD",
			EventTS: ts,
		},
	}
}

func reactionEvent(thread string) callback {
	ts := newTS()
	return callback{
		Type:    "event_callback",
		EventID: "Ev" + ts,
		Event: innerEvent{
			Type:     "reaction_added",
			User:     reviewers[rand.Intn(len(reviewers))],
			Reaction: reactions[rand.Intn(len(reactions))],
			Item:     map[string]any{"type": "message", "channel": "CLOAD", "ts": thread},
			EventTS:  ts,
		},
	}
}

func eventHeaders(body []byte) http.Header {
	h := http.Header{"Content-Type": {"application/json"}}
	if secret == "" {
		return h
	}
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + ts + ":"))
	mac.Write(body)
	h.Set("X-Slack-Request-Timestamp", ts)
	h.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	return h
}

func postEvent(ev callback) (int, error) {
	body, _ := json.Marshal(ev)
	req, _ := http.NewRequest(http.MethodPost, *targetHost+"/slack/events", bytes.NewReader(body))
	req.Header = eventHeaders(body)
	resp, err := httpc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// Seed
func seedData() error {
	log.Printf("Seeding: tracking %d reviews...", *seedCount)

	for i := 0; i < *seedCount; i++ {
		ts := newTS()
		status, err := postEvent(mentionEvent(ts))
		if err != nil {
			return err
		}
		if status >= 400 {
			log.Printf("WARN slack/events returned %d", status)
			continue
		}
		threads = append(threads, ts)
		time.Sleep(10 * time.Millisecond)
	}

	log.Printf("Seed completed: threads=%d", len(threads))
	return nil
}

// Targeter
func makeTargeter() vegeta.Targeter {
	return func(t *vegeta.Target) error {
		r := rand.Float64()

		// 50% GET reviews / stats
		if r < 0.50 {
			paths := []string{"/reviews", "/stats/leaderboard", "/stats/leaderboard?metric=fastestApproval", "/stats/users/" + reviewers[rand.Intn(len(reviewers))]}
			t.Method = http.MethodGet
			t.URL = *targetHost + paths[rand.Intn(len(paths))]
			t.Body = nil
			t.Header = http.Header{"Accept": {"application/json"}}
			return nil
		}

		// 40% reactions on seeded threads
		var ev callback
		if r < 0.90 && len(threads) > 0 {
			ev = reactionEvent(threads[rand.Intn(len(threads))])
		} else {
			// 10% new tracked reviews
			ev = mentionEvent(newTS())
		}

		body, _ := json.Marshal(ev)
		t.Method = http.MethodPost
		t.URL = *targetHost + "/slack/events"
		t.Body = body
		t.Header = eventHeaders(body)
		return nil
	}
}

// Attack
func runAttack() {
	rate := vegeta.Rate{Freq: *rps, Per: time.Second}
	attacker := vegeta.NewAttacker()

	var metrics vegeta.Metrics

	log.Printf("Starting attack: %s for %s", *targetHost, *duration)
	for res := range attacker.Attack(makeTargeter(), rate, *duration, "review-bot-load") {
		metrics.Add(res)
	}
	metrics.Close()

	fmt.Println("=== Results ===")
	fmt.Printf("Requests: %d\n", metrics.Requests)
	fmt.Printf("Success rate: %.4f%%\n", metrics.Success*100)
	fmt.Printf("Latency mean: %s\n", metrics.Latencies.Mean)
	fmt.Printf("Latency P95: %s\n", metrics.Latencies.P95)
	fmt.Printf("Latency P99: %s\n", metrics.Latencies.P99)
}

func main() {
	flag.Parse()

	if err := seedData(); err != nil {
		log.Fatalf("Seed failed: %v", err)
	}

	runAttack()
}
