// Package main - agitator
// Load generator for stress testing: many concurrent commanders logging in and tapping
// over WebSocket as fast as the configured interval allows.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"
)

// Config for the agitator
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	UserPrefix     string
	Password       string
}

// Stats tracks performance metrics
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	Rejected         int64 // RESULT replies with ok=false
	Errors           int64 // transport failures
	Latencies        []time.Duration
	mu               sync.Mutex
}

// weighted command mix; TAP dominates like real play
var commandMix = []string{
	"TAP", "TAP", "TAP", "TAP", "TAP", "TAP", "TAP", "TAP",
	"STATE",
	"DROP_TABLE",
	"CAN_AFFORD",
	"START_CONSTRUCTION",
}

type command struct {
	Type      string      `json:"type"`
	RequestID string      `json:"request_id"`
	Payload   interface{} `json:"payload,omitempty"`
}

type result struct {
	Type      string `json:"type"`
	Command   string `json:"command"`
	RequestID string `json:"request_id"`
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 50, "Number of concurrent clients")
	interval := flag.Duration("interval", 100*time.Millisecond, "Command interval per client")
	duration := flag.Duration("duration", 60*time.Second, "Test duration")
	prefix := flag.String("prefix", "agitator", "Username prefix; accounts are created on first run")
	password := flag.String("password", "agitator", "Password of every generated account")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		UserPrefix:     *prefix,
		Password:       *password,
	}

	fmt.Println("=========================================")
	fmt.Println("🔥 AGITATOR - UniverseRPG Stress Test")
	fmt.Println("=========================================")
	fmt.Printf("Server: %s\n", config.ServerURL)
	fmt.Printf("Clients: %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\n⚠️ Interrupt received, stopping...")
		cancel()
	}()

	stats := runStressTest(ctx, config)
	printResults(stats, config)
}

func runStressTest(ctx context.Context, config Config) *Stats {
	stats := &Stats{
		Latencies: make([]time.Duration, 0, 10000),
	}

	var wg sync.WaitGroup

	fmt.Println("\n🚀 Starting clients...")

	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}

	fmt.Printf("✅ All %d clients started\n\n", config.NumClients)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sent := atomic.LoadInt64(&stats.MessagesSent)
				recv := atomic.LoadInt64(&stats.MessagesReceived)
				rej := atomic.LoadInt64(&stats.Rejected)
				errs := atomic.LoadInt64(&stats.Errors)
				fmt.Printf("📊 Progress: Sent=%d Recv=%d Rejected=%d Errors=%d\n", sent, recv, rej, errs)
			}
		}
	}()

	wg.Wait()
	return stats
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	username := fmt.Sprintf("%s_%03d", config.UserPrefix, clientID)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("Client %d: Connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	var (
		pendingMu sync.Mutex
		pending   = make(map[string]time.Time)
		authed    = make(chan bool, 1)
	)

	// Receiver: match replies to requests for round-trip latency.
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			for _, line := range bytes.Split(msg, []byte{'\n'}) {
				atomic.AddInt64(&stats.MessagesReceived, 1)
				var res result
				if json.Unmarshal(line, &res) != nil || res.Type != "RESULT" {
					continue
				}
				pendingMu.Lock()
				sentAt, ok := pending[res.RequestID]
				delete(pending, res.RequestID)
				pendingMu.Unlock()
				if ok {
					stats.mu.Lock()
					stats.Latencies = append(stats.Latencies, time.Since(sentAt))
					stats.mu.Unlock()
				}
				if !res.OK {
					atomic.AddInt64(&stats.Rejected, 1)
				}
				if res.Command == "CREATE_USER" || res.Command == "LOGIN" {
					select {
					case authed <- res.OK:
					default:
					}
				}
			}
		}
	}()

	seq := 0
	send := func(cmd command) error {
		seq++
		cmd.RequestID = username + "-" + strconv.Itoa(seq)
		pendingMu.Lock()
		pending[cmd.RequestID] = time.Now()
		pendingMu.Unlock()
		if err := conn.WriteJSON(cmd); err != nil {
			atomic.AddInt64(&stats.Errors, 1)
			return err
		}
		atomic.AddInt64(&stats.MessagesSent, 1)
		return nil
	}

	creds := map[string]string{"username": username, "password": config.Password}
	if send(command{Type: "CREATE_USER", Payload: creds}) != nil {
		return
	}
	ok, alive := awaitAuth(ctx, authed)
	if !alive {
		return
	}
	if !ok {
		// Account exists from an earlier run.
		if send(command{Type: "LOGIN", Payload: creds}) != nil {
			return
		}
		if ok, alive = awaitAuth(ctx, authed); !ok || !alive {
			log.Printf("Client %d: could not log in as %s", clientID, username)
			atomic.AddInt64(&stats.Errors, 1)
			return
		}
	}

	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = send(command{Type: "LOGOUT"})
			return
		case <-ticker.C:
			if send(generateCommand()) != nil {
				return
			}
		}
	}
}

func awaitAuth(ctx context.Context, authed <-chan bool) (ok bool, alive bool) {
	select {
	case ok := <-authed:
		return ok, true
	case <-time.After(10 * time.Second):
		return false, false
	case <-ctx.Done():
		return false, false
	}
}

func generateCommand() command {
	cmd := command{Type: commandMix[rand.Intn(len(commandMix))]}
	switch cmd.Type {
	case "CAN_AFFORD", "START_CONSTRUCTION":
		blueprints := []string{"iron-ingot", "copper-wire", "steel-plate"}
		cmd.Payload = map[string]string{"blueprint_id": blueprints[rand.Intn(len(blueprints))]}
	}
	return cmd
}

// percentile returns the p-th percentile of sorted latencies.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func printResults(stats *Stats, config Config) {
	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	rej := atomic.LoadInt64(&stats.Rejected)
	errs := atomic.LoadInt64(&stats.Errors)
	throughput := float64(sent) / config.TestDuration.Seconds()
	errRate := float64(errs) / float64(sent+1)

	stats.mu.Lock()
	lat := append([]time.Duration(nil), stats.Latencies...)
	stats.mu.Unlock()
	sort.Slice(lat, func(i, j int) bool { return lat[i] < lat[j] })
	p50, p95, p99 := percentile(lat, 0.50), percentile(lat, 0.95), percentile(lat, 0.99)

	fmt.Println("\n=========================================")
	fmt.Println("📊 STRESS TEST RESULTS")
	fmt.Println("=========================================")
	fmt.Printf("Commands sent:     %s\n", humanize.Comma(sent))
	fmt.Printf("Frames received:   %s\n", humanize.Comma(recv))
	fmt.Printf("Rejected:          %s\n", humanize.Comma(rej))
	fmt.Printf("Transport errors:  %s (%.2f%%)\n", humanize.Comma(errs), errRate*100)
	fmt.Printf("Throughput:        %s cmd/sec\n", humanize.FormatFloat("#,###.##", throughput))
	if len(lat) > 0 {
		fmt.Printf("Round trip:        p50 %v  p95 %v  p99 %v  (%s samples)\n",
			p50, p95, p99, humanize.Comma(int64(len(lat))))
	}

	fmt.Println("-----------------------------------------")
	switch {
	case errs == 0 && rej < sent/10:
		fmt.Println("✅ PASSED: server kept up")
	case errRate < 0.05:
		fmt.Println("⚠️ WARNING: some commands were rejected or failed")
	default:
		fmt.Println("❌ FAILED: high error rate")
	}

	results := map[string]interface{}{
		"commands_sent":      sent,
		"frames_received":    recv,
		"rejected":           rej,
		"errors":             errs,
		"throughput_per_sec": throughput,
		"latency_p50":        p50.String(),
		"latency_p95":        p95.String(),
		"latency_p99":        p99.String(),
		"config": map[string]interface{}{
			"clients":  config.NumClients,
			"interval": config.ActionInterval.String(),
			"duration": config.TestDuration.String(),
		},
	}
	jsonData, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile("stress_test_results.json", jsonData, 0644); err != nil {
		log.Printf("could not write results: %v", err)
		return
	}
	fmt.Println("📁 Results saved to stress_test_results.json")
}
