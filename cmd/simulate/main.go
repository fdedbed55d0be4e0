package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentalbook/doctor-assignment/internal/config"
	"github.com/dentalbook/doctor-assignment/internal/db"
)

type SimConfig struct {
	APIBaseURL       string
	Duration         time.Duration
	Workers          int
	AssignRatio      float64
	ReassignRatio    float64
	ReadRatio        float64
	AppointmentLimit int
	PostgresDSN      string
}

type DataPool struct {
	Pending []uuid.UUID
	Doctors []uuid.UUID
	mu      sync.RWMutex
	// Appointments that got a doctor during this run; targets for
	// reassign and read operations.
	assigned []uuid.UUID
}

func (dp *DataPool) AddAssigned(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.assigned = append(dp.assigned, id)
}

func (dp *DataPool) GetRandomAssigned() (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.assigned) == 0 {
		return uuid.Nil, false
	}
	idx := rand.Intn(len(dp.assigned))
	return dp.assigned[idx], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	AutoAssign OperationMetrics
	Reassign   OperationMetrics
	ReadByID   OperationMetrics
	Candidates OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics

	// Index of the next pending appointment to auto-assign. Each
	// appointment should be targeted at most a handful of times, so
	// workers walk the pool instead of picking at random.
	nextPending int64
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadSimConfig()
	if err := validateSimConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d assign=%.2f reassign=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.AssignRatio, cfg.ReassignRatio, cfg.ReadRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d pending appointments, %d doctors", len(dataPool.Pending), len(dataPool.Doctors))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()

	verifyCtx, verifyCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer verifyCancel()
	if err := verifyNoDoubleBooking(verifyCtx, pgPool); err != nil {
		log.Fatalf("verification failed: %v", err)
	}
}

func loadSimConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:       getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:         getDuration("SIM_DURATION", 30*time.Second),
		Workers:          getInt("SIM_WORKERS", 10),
		AssignRatio:      getFloat("SIM_ASSIGN_RATIO", 0.6),
		ReassignRatio:    getFloat("SIM_REASSIGN_RATIO", 0.1),
		ReadRatio:        getFloat("SIM_READ_RATIO", 0.3),
		AppointmentLimit: getInt("SIM_APPOINTMENT_LIMIT", 2000),
		PostgresDSN:      baseCfg.PostgresDSN,
	}

	// Normalize ratios
	total := cfg.AssignRatio + cfg.ReassignRatio + cfg.ReadRatio
	if total > 0 {
		cfg.AssignRatio /= total
		cfg.ReassignRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateSimConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `
		SELECT id FROM appointments
		WHERE status = 'pending' AND doctor_id IS NULL
		LIMIT $1
	`, cfg.AppointmentLimit)
	if err != nil {
		return nil, fmt.Errorf("load pending appointments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Pending = append(dataPool.Pending, id)
	}

	rows, err = pool.Query(ctx, `
		SELECT id FROM practitioners WHERE status = 'approved'
	`)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Doctors = append(dataPool.Doctors, id)
	}

	if len(dataPool.Pending) == 0 {
		return nil, fmt.Errorf("no pending appointments loaded (run the seeder first)")
	}
	if len(dataPool.Doctors) == 0 {
		return nil, fmt.Errorf("no approved doctors loaded (run the seeder first)")
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			if r < s.config.AssignRatio {
				s.doAutoAssign(ctx)
			} else if r < s.config.AssignRatio+s.config.ReassignRatio {
				s.doReassign(ctx, rng)
			} else {
				if rng.Intn(2) == 0 {
					s.doReadByID(ctx)
				} else {
					s.doCandidates(ctx)
				}
			}
		}
	}
}

// doAutoAssign fires auto-assign for a pending appointment. Two workers
// can land on the same appointment; exactly one should win, the other
// should get the idempotent success or a conflict.
func (s *Simulator) doAutoAssign(ctx context.Context) {
	n := atomic.AddInt64(&s.nextPending, 1)
	apptID := s.pool.Pending[int(n)%len(s.pool.Pending)]

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/appointments/%s/assign", s.config.APIBaseURL, apptID.String()), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			success = true
			var apptResp struct {
				ID       uuid.UUID `json:"id"`
				DoctorID *string   `json:"doctor_id"`
			}
			bodyBytes, _ := io.ReadAll(resp.Body)
			if len(bodyBytes) > 0 {
				json.Unmarshal(bodyBytes, &apptResp)
				if apptResp.ID != uuid.Nil && apptResp.DoctorID != nil {
					s.pool.AddAssigned(apptResp.ID)
				}
			}
		} else if resp.StatusCode == http.StatusConflict {
			conflict = true
		}
	}

	s.metrics.AutoAssign.Record(latency, success, conflict)
}

func (s *Simulator) doReassign(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.GetRandomAssigned()
	if !ok {
		return
	}
	doctorID := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]

	start := time.Now()

	reqBody := map[string]string{
		"doctor_id": doctorID.String(),
		"actor_id":  "simulator",
		"reason":    "load test reassignment",
	}
	body, _ := json.Marshal(reqBody)

	req, _ := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/appointments/%s/reassign", s.config.APIBaseURL, apptID.String()), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			success = true
		} else if resp.StatusCode == http.StatusConflict {
			conflict = true
		}
	}

	s.metrics.Reassign.Record(latency, success, conflict)
}

func (s *Simulator) doReadByID(ctx context.Context) {
	apptID, ok := s.pool.GetRandomAssigned()
	if !ok {
		return
	}

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/appointments/%s", s.config.APIBaseURL, apptID.String()), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ReadByID.Record(latency, success, false)
}

func (s *Simulator) doCandidates(ctx context.Context) {
	apptID, ok := s.pool.GetRandomAssigned()
	if !ok {
		return
	}

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/appointments/%s/candidates", s.config.APIBaseURL, apptID.String()), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.Candidates.Record(latency, success, false)
}

// verifyNoDoubleBooking checks that no doctor ended up with two active
// appointments at the same date and time.
func verifyNoDoubleBooking(ctx context.Context, pool *pgxpool.Pool) error {
	rows, err := pool.Query(ctx, `
		SELECT doctor_id, date, clock_time, count(*)
		FROM appointments
		WHERE doctor_id IS NOT NULL AND status <> 'cancelled'
		GROUP BY doctor_id, date, clock_time
		HAVING count(*) > 1
	`)
	if err != nil {
		return fmt.Errorf("query double bookings: %w", err)
	}
	defer rows.Close()

	found := 0
	for rows.Next() {
		var doctorID uuid.UUID
		var date time.Time
		var clock string
		var count int64
		if err := rows.Scan(&doctorID, &date, &clock, &count); err != nil {
			return err
		}
		found++
		log.Printf("DOUBLE BOOKING: doctor=%s date=%s time=%s count=%d",
			doctorID, date.Format("2006-01-02"), clock, count)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if found > 0 {
		return fmt.Errorf("%d doctor/slot pairs double-booked", found)
	}
	log.Println("verification passed: no doctor double-booked")
	return nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Auto Assign", &s.metrics.AutoAssign)
	printOperationReport("Reassign", &s.metrics.Reassign)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("Candidates", &s.metrics.Candidates)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errors := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if errors > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errors, float64(errors)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func repeat(s string, n int) string {
	return strings.Repeat(s, n)
}
