package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// simulate hammers one freshly published slot with concurrent booking
// requests and verifies that exactly one succeeds. Run it against a
// seeded dev stack; it needs the seeded operator account.

type SimConfig struct {
	APIBaseURL    string
	Workers       int
	Rounds        int
	AdminEmail    string
	AdminPassword string
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:8080"),
		Workers:       getInt("SIM_WORKERS", 16),
		Rounds:        getInt("SIM_ROUNDS", 10),
		AdminEmail:    getEnv("SIM_ADMIN_EMAIL", "admin@salon.local"),
		AdminPassword: getEnv("SIM_ADMIN_PASSWORD", "salon-demo"),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

type RoundMetrics struct {
	mu        sync.Mutex
	Success   int
	Conflict  int
	Error     int
	Latencies []time.Duration
}

func (m *RoundMetrics) Record(latency time.Duration, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Latencies = append(m.Latencies, latency)
	switch {
	case status == http.StatusCreated:
		m.Success++
	case status == http.StatusConflict:
		m.Conflict++
	default:
		m.Error++
	}
}

func (m *RoundMetrics) Stats() (avg, p95 time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Latencies) == 0 {
		return 0, 0
	}

	sorted := make([]time.Duration, len(m.Latencies))
	copy(sorted, m.Latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	avg = sum / time.Duration(len(sorted))

	idx := len(sorted) * 95 / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	p95 = sorted[idx]

	return avg, p95
}

type client struct {
	base string
	http *http.Client
}

func (c *client) post(path, token string, body any) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	return resp.StatusCode, data, err
}

func (c *client) login(email, password string) (string, error) {
	status, body, err := c.post("/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("login %s: status %d: %s", email, status, body)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *client) register(name, email, password string) error {
	status, body, err := c.post("/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}
	if status != http.StatusCreated && status != http.StatusConflict {
		return fmt.Errorf("register %s: status %d: %s", email, status, body)
	}
	return nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadSimConfig()
	gofakeit.Seed(time.Now().UnixNano())

	c := &client{base: cfg.APIBaseURL, http: &http.Client{Timeout: 10 * time.Second}}

	adminToken, err := c.login(cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Fatalf("admin login: %v", err)
	}

	// One account per worker so every request is a distinct client.
	log.Printf("registering %d simulated clients", cfg.Workers)
	tokens := make([]string, cfg.Workers)
	for i := range tokens {
		email := fmt.Sprintf("sim-%d-%s", i, gofakeit.Email())
		password := "sim-" + gofakeit.Password(true, true, true, false, false, 12)
		if err := c.register(gofakeit.Name(), email, password); err != nil {
			log.Fatalf("register worker %d: %v", i, err)
		}
		token, err := c.login(email, password)
		if err != nil {
			log.Fatalf("login worker %d: %v", i, err)
		}
		tokens[i] = token
	}

	violations := 0
	for round := 0; round < cfg.Rounds; round++ {
		// A date far in the future keeps rounds clear of seeded slots.
		date := time.Now().AddDate(1, 0, round).Format("2006-01-02")
		slotTime := fmt.Sprintf("%02d:00", 9+round%9)

		status, body, err := c.post("/admin/slots", adminToken, map[string]string{
			"date": date,
			"time": slotTime,
		})
		if err != nil || status != http.StatusCreated {
			log.Fatalf("publish slot %s %s: status %d err %v: %s", date, slotTime, status, err, body)
		}

		metrics := &RoundMetrics{}
		var wg sync.WaitGroup
		for _, token := range tokens {
			wg.Add(1)
			go func(token string) {
				defer wg.Done()
				start := time.Now()
				status, _, err := c.post("/appointments", token, map[string]any{
					"date": date,
					"time": slotTime,
				})
				if err != nil {
					status = 0
				}
				metrics.Record(time.Since(start), status)
			}(token)
		}
		wg.Wait()

		avg, p95 := metrics.Stats()
		log.Printf("round %d slot=%s %s success=%d conflict=%d error=%d avg=%s p95=%s",
			round, date, slotTime, metrics.Success, metrics.Conflict, metrics.Error, avg, p95)

		if metrics.Success != 1 {
			violations++
			log.Printf("VIOLATION: expected exactly 1 successful booking, got %d", metrics.Success)
		}
	}

	if violations > 0 {
		log.Fatalf("%d of %d rounds violated the single-booking guarantee", violations, cfg.Rounds)
	}
	log.Printf("all %d rounds held the single-booking guarantee", cfg.Rounds)
}
